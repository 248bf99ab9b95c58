// Package audiocmd implements the `*-command` half of spec.md §6's
// mic/snd options: a long-lived capture or playback subprocess
// (e.g. `arecord`, `aplay`) speaking raw, unframed PCM on stdout/stdin,
// as an alternative to dialing a Wyoming peer over `*-uri`. Grounded on
// pkg/hook's os/exec.CommandContext shape, generalized from "one bounded
// invocation per event" to "one long-lived process piped straight into
// pkg/micpipe.Pipeline.Ingest or wrapped as an pkg/sndpipe.Sink."
package audiocmd
