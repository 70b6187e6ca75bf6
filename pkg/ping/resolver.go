package ping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// DNS-over-HTTPS endpoints answering the JSON wire format.
var dohEndpoints = []string{
	"https://cloudflare-dns.com/dns-query",
	"https://dns.google/resolve",
}

const typeSRV = 33

// Resolver discovers the actual connect address of a server by its
// _minecraft._tcp SRV record using DNS-over-HTTPS.
type Resolver struct {
	// The http client to query the DoH endpoints.
	// If none is set, a new one is created.
	Client *http.Client
	// Endpoints overrides the queried DoH endpoints, tried in order.
	Endpoints []string
}

// SRV is a resolved service record.
type SRV struct {
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
}

type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Type int    `json:"type"`
		Data string `json:"data"`
	} `json:"Answer"`
}

// Resolve looks up the SRV record for host and returns the target
// host and port to connect to. When no record exists the input host
// with the given default port is returned.
func (r *Resolver) Resolve(ctx context.Context, host string, defaultPort uint16) (string, uint16) {
	log := logr.FromContextOrDiscard(ctx).WithName("resolver")
	records, err := r.lookup(ctx, host)
	if err != nil || len(records) == 0 {
		if err != nil {
			log.V(1).Info("srv lookup failed, using host as is", "host", host, "error", err.Error())
		}
		return host, defaultPort
	}
	best := records[0]
	log.V(1).Info("resolved srv record", "host", host, "target", best.Target, "port", best.Port)
	return best.Target, best.Port
}

func (r *Resolver) lookup(ctx context.Context, host string) ([]SRV, error) {
	name := "_minecraft._tcp." + host
	endpoints := r.Endpoints
	if len(endpoints) == 0 {
		endpoints = dohEndpoints
	}
	var lastErr error
	for _, endpoint := range endpoints {
		records, err := r.query(ctx, endpoint, name)
		if err == nil {
			return records, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *Resolver) query(ctx context.Context, endpoint, name string) ([]SRV, error) {
	u := endpoint + "?" + url.Values{
		"name": {name},
		"type": {"SRV"},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/dns-json")

	cli := r.Client
	if cli == nil {
		cli = &http.Client{Timeout: time.Second * 5}
	}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("doh endpoint returned status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var dr dohResponse
	if err = json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("error decoding doh response: %w", err)
	}
	if dr.Status != 0 {
		return nil, nil // NXDOMAIN and friends mean "no record", not failure
	}

	var records []SRV
	for _, answer := range dr.Answer {
		if answer.Type != typeSRV {
			continue
		}
		record, err := parseSRVData(answer.Data)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})
	return records, nil
}

// parseSRVData parses the "priority weight port target" SRV rdata.
func parseSRVData(data string) (SRV, error) {
	fields := strings.Fields(data)
	if len(fields) != 4 {
		return SRV{}, fmt.Errorf("srv record has %d fields, want 4", len(fields))
	}
	nums := make([]uint16, 3)
	for i := range nums {
		n, err := strconv.ParseUint(fields[i], 10, 16)
		if err != nil {
			return SRV{}, fmt.Errorf("error parsing srv field %q: %w", fields[i], err)
		}
		nums[i] = uint16(n)
	}
	return SRV{
		Priority: nums[0],
		Weight:   nums[1],
		Port:     nums[2],
		Target:   strings.TrimSuffix(fields[3], "."),
	}, nil
}
