package zeroconf

import (
	"crypto/md5"
	"fmt"
	"net"
	"os"

	gocat "github.com/grandcat/zeroconf"
)

const serviceType = "_wyoming._tcp"

// Announcer publishes and retracts the satellite's mDNS record.
type Announcer interface {
	Close()
}

// Noop announces nothing. cmd/wyosat uses it when the bind URI has no TCP
// port to advertise; with --no-zeroconf it announces nothing at all.
type Noop struct{}

func (Noop) Close() {}

// Config configures an mDNS announcement.
type Config struct {
	// Name defaults to a MAC-derived identifier (spec.md §6) when empty.
	Name string
	// Host defaults to a best-guess routable interface address when empty.
	Host string
	Port int
}

type server struct {
	s *gocat.Server
}

func (a *server) Close() { a.s.Shutdown() }

// Announce registers the satellite on the local network. The returned
// Announcer must be Closed on shutdown to retract the record promptly.
func Announce(cfg Config) (Announcer, error) {
	name := cfg.Name
	if name == "" {
		mac, err := defaultMAC()
		if err != nil {
			return nil, fmt.Errorf("zeroconf: derive default name: %w", err)
		}
		name = "wyoming-satellite-" + mac
	}

	var ips []string
	if cfg.Host != "" {
		if ip := net.ParseIP(cfg.Host); ip != nil {
			ips = append(ips, ip.String())
		}
	} else if ip, err := defaultRoutableIP(); err == nil {
		ips = append(ips, ip.String())
	}

	host, err := os.Hostname()
	if err != nil {
		host = name
	}

	s, err := gocat.RegisterProxy(
		name,
		serviceType,
		"local.",
		cfg.Port,
		host,
		ips,
		nil,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("zeroconf: register: %w", err)
	}
	return &server{s: s}, nil
}

// defaultMAC derives a short, stable identifier from the first non-
// loopback interface's hardware address, matching spec.md §6's "the name
// defaults to a MAC-derived identifier."
func defaultMAC() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		sum := md5.Sum(iface.HardwareAddr)
		return fmt.Sprintf("%x", sum[:4]), nil
	}
	return "unknown", nil
}

// defaultRoutableIP picks the first non-loopback IPv4 address on any up
// interface, a reasonable "best-guess routable interface address."
func defaultRoutableIP() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			return ip, nil
		}
	}
	return nil, fmt.Errorf("zeroconf: no routable interface address found")
}
