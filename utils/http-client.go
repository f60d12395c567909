package utils

import (
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

type HTTPClientConfig struct {
	Timeout        time.Duration // zero means no client-side timeout
	KATimeout      time.Duration // zero keeps idle connections for the whole run
	MaxConnections int           // hard ceiling on simultaneous connections per source host
	ProxyURL       string
	UserAgent      string
	Headers        map[string]string
	HighThreadMode bool // advanced socket options for high concurrency
}

// SwarmHTTPClient is the single pooled client shared by the validator and
// the fetch engine. The transport caps simultaneous connections per source
// host at MaxConnections; requests beyond the ceiling block inside the
// transport until a connection frees up.
type SwarmHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewSwarmHTTPClient(cfg HTTPClientConfig) *SwarmHTTPClient {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	idleConns := max(cfg.MaxConnections, 100) // idle pool at least as big as the ceiling
	transport := &http.Transport{
		MaxIdleConns:        idleConns * 2,
		MaxIdleConnsPerHost: idleConns, // for connection reuse
		IdleConnTimeout:     cfg.KATimeout,
		DisableCompression:  true,
		MaxConnsPerHost:     cfg.MaxConnections,
	}
	if cfg.HighThreadMode {
		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			DualStack: true,
			// Increased socket buffer size for better speed
			Control: func(network, address string, c syscall.RawConn) error {
				return c.Control(func(fd uintptr) {
					setSocketOptions(fd)
				})
			},
		}).DialContext
	}
	if cfg.ProxyURL != "" {
		proxyURLParsed, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			log.Error().Err(err).Str("proxy", cfg.ProxyURL).Msg("Invalid proxy URL, proceeding without proxy")
		} else {
			transport.Proxy = http.ProxyURL(proxyURLParsed)
			log.Debug().Str("proxy", cfg.ProxyURL).Msg("Using proxy for connections")
		}
	}
	return &SwarmHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

func (s *SwarmHTTPClient) SetHeader(key, value string) {
	s.config.Headers[key] = value
}

func (s *SwarmHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if s.config.UserAgent != "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}
	return s.client.Do(req)
}
