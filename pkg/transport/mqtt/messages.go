// Package mqtt carries fit requests and client updates over an MQTT broker.
// Payloads are CBOR encoded.
package mqtt

import (
	"fmt"
	"strings"

	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/fxamacker/cbor/v2"
)

const (
	topicPrefix   = "fl/clients/"
	fitSuffix     = "/fit"
	updateSuffix  = "/update"
	updateFilter  = topicPrefix + "+" + updateSuffix
	statusSuffix  = "/status"
	offlineStatus = "offline"
)

func FitTopic(clientID string) string {
	return topicPrefix + clientID + fitSuffix
}

func UpdateTopic(clientID string) string {
	return topicPrefix + clientID + updateSuffix
}

// StatusTopic carries a client's last-will message.
func StatusTopic(clientID string) string {
	return topicPrefix + clientID + statusSuffix
}

func clientFromTopic(topic string) (string, error) {
	id, ok := strings.CutPrefix(topic, topicPrefix)
	if ok {
		id, ok = strings.CutSuffix(id, updateSuffix)
	}
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("unexpected update topic %q", topic)
	}

	return id, nil
}

type fitRequest struct {
	RequestID  string             `cbor:"request_id"`
	Round      int                `cbor:"round"`
	Parameters fl.Parameters      `cbor:"parameters"`
	Config     map[string]float64 `cbor:"config"`
}

type fitReply struct {
	RequestID  string             `cbor:"request_id"`
	ClientID   string             `cbor:"client_id"`
	Round      int                `cbor:"round"`
	Parameters fl.Parameters      `cbor:"parameters,omitempty"`
	NumSamples int                `cbor:"num_samples"`
	Metrics    map[string]float64 `cbor:"metrics,omitempty"`
	Error      string             `cbor:"error,omitempty"`
}

func encode(v any) ([]byte, error) {
	data, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	return data, nil
}

func decode(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	return nil
}
