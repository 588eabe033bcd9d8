package repo

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// bankConfig is the on-disk shape of banks/<name>/config.json.
type bankConfig struct {
	TargetPath string `json:"target_path"`
}

func marshalBankConfig(c bankConfig) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshaling bank config")
	}

	return data, nil
}

func unmarshalBankConfig(data []byte) (bankConfig, error) {
	var c bankConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return bankConfig{}, errors.Wrap(err, "decoding bank config")
	}

	return c, nil
}
