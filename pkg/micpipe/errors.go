package micpipe

import "errors"

// ErrDsp is returned by an AGC/Denoiser implementation when its
// stage fails on a given chunk. The pipeline logs and skips the stage for
// that chunk rather than dropping it (spec.md §7).
var ErrDsp = errors.New("micpipe: dsp stage error")
