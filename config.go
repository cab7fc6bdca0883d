package fedfraud

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

const (
	ClientLocal = "local"
	ClientMQTT  = "mqtt"
)

var ErrInvalidRoster = errors.New("invalid client roster")

// Roster lists the registered clients in registration order.
type Roster struct {
	Clients []ClientConfig `toml:"clients"`
}

type ClientConfig struct {
	ID   string `toml:"id"`
	Type string `toml:"type"`
	// Dataset is the .npz file an in-process client trains on.
	Dataset string `toml:"dataset"`
}

func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading roster file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing roster file: %w", err)
	}

	var r Roster
	if err := tree.Unmarshal(&r); err != nil {
		return nil, fmt.Errorf("error unmarshaling roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *Roster) Validate() error {
	seen := make(map[string]bool, len(r.Clients))
	for i, c := range r.Clients {
		switch {
		case c.ID == "":
			return fmt.Errorf("%w: client %d has no id", ErrInvalidRoster, i)
		case seen[c.ID]:
			return fmt.Errorf("%w: duplicate client id %q", ErrInvalidRoster, c.ID)
		case c.Type != ClientLocal && c.Type != ClientMQTT:
			return fmt.Errorf("%w: client %q has unknown type %q", ErrInvalidRoster, c.ID, c.Type)
		case c.Type == ClientLocal && c.Dataset == "":
			return fmt.Errorf("%w: local client %q needs a dataset", ErrInvalidRoster, c.ID)
		}
		seen[c.ID] = true
	}

	return nil
}

// HasRemote reports whether any client is reached over MQTT.
func (r *Roster) HasRemote() bool {
	for _, c := range r.Clients {
		if c.Type == ClientMQTT {
			return true
		}
	}

	return false
}
