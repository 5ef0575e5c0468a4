package ntp

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	mcperrors "github.com/utcsync/mcp-time-server/pkg/errors"
)

// PeerQuerier consults the time daemon through its control protocol.
// Implementations must honor the context deadline; a hung daemon must
// not hang the caller.
type PeerQuerier interface {
	// Peers returns the tabular peer billboard (ntpq -p -n).
	Peers(ctx context.Context) (PeerList, error)
	// Variables returns the system variable set (ntpq -c rv).
	Variables(ctx context.Context) (SystemVariables, error)
}

// PeerList is the raw peer billboard, line-split and verbatim.
type PeerList struct {
	Lines []string `json:"peers"`
	Raw   string   `json:"raw_output"`
}

// Synced reports whether any peer carries the system-peer tally '*'.
func (p PeerList) Synced() bool {
	for _, line := range p.Lines {
		if strings.HasPrefix(line, "*") {
			return true
		}
	}
	return false
}

// SystemVariables is the subset of the daemon's system variables the
// status subsystem reports. Offsets and delays are milliseconds;
// Precision is log2 seconds.
type SystemVariables struct {
	OffsetMS       float64
	Stratum        uint8
	Precision      int
	RootDelay      float64
	RootDispersion float64
}

type ntpqQuerier struct {
	command string
}

// NewNtpqQuerier shells out to the ntpq control utility on PATH.
func NewNtpqQuerier() PeerQuerier {
	return &ntpqQuerier{command: "ntpq"}
}

func (q *ntpqQuerier) Peers(ctx context.Context) (PeerList, error) {
	out, err := q.run(ctx, "-p", "-n")
	if err != nil {
		return PeerList{}, err
	}
	return PeerList{Lines: splitLines(out), Raw: out}, nil
}

func (q *ntpqQuerier) Variables(ctx context.Context) (SystemVariables, error) {
	out, err := q.run(ctx, "-c", "rv")
	if err != nil {
		return SystemVariables{}, err
	}
	return parseSystemVariables(out), nil
}

func (q *ntpqQuerier) run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, q.command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		qerr := mcperrors.PeerQueryFailed(err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			qerr = qerr.WithDetail(msg)
		}
		return "", qerr
	}
	return stdout.String(), nil
}

// parseSystemVariables scans the comma-separated rv output for the
// variables we report. Unknown or unparsable entries keep their
// defaults; a missing stratum means unsynchronized.
func parseSystemVariables(out string) SystemVariables {
	vars := SystemVariables{Stratum: stratumUnsynced}

	for _, part := range strings.Split(out, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "offset="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "offset="), 64); err == nil {
				vars.OffsetMS = v
			}
		case strings.HasPrefix(part, "stratum="):
			if v, err := strconv.ParseUint(strings.TrimPrefix(part, "stratum="), 10, 8); err == nil {
				vars.Stratum = uint8(v)
			}
		case strings.HasPrefix(part, "precision="):
			if v, err := strconv.Atoi(strings.TrimPrefix(part, "precision=")); err == nil {
				vars.Precision = v
			}
		case strings.HasPrefix(part, "rootdelay="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "rootdelay="), 64); err == nil {
				vars.RootDelay = v
			}
		case strings.HasPrefix(part, "rootdisp="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "rootdisp="), 64); err == nil {
				vars.RootDispersion = v
			}
		}
	}
	return vars
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
}
