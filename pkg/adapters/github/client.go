/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package github publishes generated apps to GitHub repositories and
// serves them with GitHub Pages.
package github

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gh "github.com/google/go-github/v75/github"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com/"

// ClientConfig selects how the REST client authenticates. A token takes
// precedence over GitHub App credentials.
type ClientConfig struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	APIURL         string
	HTTPClient     *http.Client
}

// HasCredentials reports whether enough is configured to authenticate.
func (c ClientConfig) HasCredentials() bool {
	return c.Token != "" || c.UsesApp()
}

// UsesApp reports whether the client authenticates as an App installation.
func (c ClientConfig) UsesApp() bool {
	return c.Token == "" && c.AppID != 0 && c.InstallationID != 0 && c.PrivateKeyPath != ""
}

// NewClient builds a go-github client from cfg.
func NewClient(cfg ClientConfig) (*gh.Client, error) {
	if !cfg.HasCredentials() {
		return nil, ErrNoCredentials
	}

	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}

	client := gh.NewClient(cfg.HTTPClient)
	if cfg.APIURL != "" && strings.TrimRight(cfg.APIURL, "/") != strings.TrimRight(DefaultAPIURL, "/") {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("parse GitHub API URL: %w", err)
		}
	}

	if cfg.Token != "" {
		return client.WithAuthToken(cfg.Token), nil
	}

	itr, err := ghinstallation.NewKeyFromFile(base, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("create installation transport: %w", err)
	}
	itr.BaseURL = strings.TrimSuffix(client.BaseURL.String(), "/")

	hc := &http.Client{Transport: itr}
	if cfg.HTTPClient != nil {
		hc.Timeout = cfg.HTTPClient.Timeout
	}
	app := gh.NewClient(hc)
	app.BaseURL = client.BaseURL
	app.UploadURL = client.UploadURL
	return app, nil
}
