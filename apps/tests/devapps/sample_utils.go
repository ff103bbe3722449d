// Copyright (c) Microsoft Corporation.
// Licensed under the MIT license.

package main

import (
	"encoding/json"
	"log"
	"os"
)

// Config represents the config.json required to run the samples
type Config struct {
	Authority         string `json:"authority"`
	Cloud             string `json:"cloud"`
	Tenant            string `json:"tenant"`
	ValidateAuthority bool   `json:"validate_authority"`
	Username          string `json:"username"`
	PiiLogging        bool   `json:"pii_logging"`
}

// CreateConfig creates the Config struct from a json file.
func CreateConfig(fileName string) *Config {
	data, err := os.ReadFile(fileName)
	if err != nil {
		log.Fatal(err)
	}

	config := &Config{}
	err = json.Unmarshal(data, config)
	if err != nil {
		log.Fatal(err)
	}
	return config
}
