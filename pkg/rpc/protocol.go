// Package rpc implements the line-based JSON-RPC exchange spoken by the
// miner's remote management port.
package rpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ethmon/pkg/models"
)

const (
	// MethodGetStat is the only method the monitor calls.
	MethodGetStat = "miner_getstat1"
	// MinResultFields is the number of positional fields a stats result must carry.
	MinResultFields = 8
	// MaxResponseSize bounds how much of a single response is read.
	MaxResponseSize = 64 * 1024
)

// Result positions.
const (
	fieldVersion = iota
	fieldUptime
	fieldPrimaryTotals
	fieldPrimaryDevices
	fieldSecondaryTotals
	fieldSecondaryDevices
	fieldClimate
	fieldPools
)

type request struct {
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
}

// StatRequest returns the newline-terminated request line.
func StatRequest() []byte {
	data, _ := json.Marshal(request{ID: 0, JSONRPC: "2.0", Method: MethodGetStat})
	return append(data, '\n')
}

type response struct {
	ID     json.RawMessage   `json:"id"`
	Result []json.RawMessage `json:"result"`
	Error  json.RawMessage   `json:"error"`
}

// Stats is a decoded miner_getstat1 result.
type Stats struct {
	Version          string
	UptimeMinutes    int64
	Primary          models.Totals
	PrimaryDevices   models.Readings
	Secondary        models.Totals
	SecondaryDevices models.Readings
	Climate          models.Climate
	Pools            []string
}

// ReadResponse reads one newline-terminated response. Bytes received before
// the peer closes the stream count as a response even without the newline.
func ReadResponse(r io.Reader) ([]byte, error) {
	reader := bufio.NewReader(io.LimitReader(r, MaxResponseSize))
	line, err := reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, ErrEmptyResponse
	}
	return line, nil
}

// DecodeStats parses a miner_getstat1 response line.
func DecodeStats(payload []byte) (*Stats, error) {
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(resp.Error) > 0 && !bytes.Equal(resp.Error, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	if len(resp.Result) < MinResultFields {
		return nil, fmt.Errorf("%w: got %d, want at least %d", ErrShortResult, len(resp.Result), MinResultFields)
	}

	fields := make([]string, len(resp.Result))
	for i, raw := range resp.Result {
		value, err := fieldText(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrMalformedResponse, i, err)
		}
		fields[i] = value
	}

	uptime, err := strconv.ParseInt(strings.TrimSpace(fields[fieldUptime]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: uptime %q", ErrMalformedResponse, fields[fieldUptime])
	}

	return &Stats{
		Version:          fields[fieldVersion],
		UptimeMinutes:    uptime,
		Primary:          models.ParseTotals(fields[fieldPrimaryTotals]),
		PrimaryDevices:   models.ParseReadings(fields[fieldPrimaryDevices]),
		Secondary:        models.ParseTotals(fields[fieldSecondaryTotals]),
		SecondaryDevices: models.ParseReadings(fields[fieldSecondaryDevices]),
		Climate:          models.ParseClimate(fields[fieldClimate]),
		Pools:            models.ParsePools(fields[fieldPools]),
	}, nil
}

// fieldText accepts both string and bare numeric result entries.
func fieldText(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return "", err
	}
	return number.String(), nil
}

// FormatUptime renders minutes as "D days, HH:MM".
func FormatUptime(minutes int64) string {
	if minutes < 0 {
		minutes = 0
	}
	days := minutes / (24 * 60)
	hours := (minutes / 60) % 24
	mins := minutes % 60
	return fmt.Sprintf("%d days, %02d:%02d", days, hours, mins)
}
