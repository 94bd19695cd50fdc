// Copyright 2023 Eikon Go Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package udf

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// The desktop proxy records its listening port in a ".portInUse" file under
// its per-user configuration directory. The application names changed between
// proxy releases, hence the list.
var (
	proxyAppNames  = []string{"Eikon API proxy", "Eikon Scripting Proxy"}
	proxyAppAuthor = "Thomson Reuters"
	portFileName   = ".portInUse"
)

// fallbackPorts are probed in order when no .portInUse file is found.
var fallbackPorts = []int{36036, 9000}

// probeTimeout bounds a single port probe.
const probeTimeout = time.Second

// userConfigDir is os.UserConfigDir, overridable in tests.
var userConfigDir = os.UserConfigDir

func proxyURL(port int) string {
	return fmt.Sprintf(URL, port)
}

// portFilePaths lists the candidate locations of the .portInUse file.
func portFilePaths() ([]string, error) {
	base, err := userConfigDir()
	if err != nil {
		return nil, errors.Annotate(err, "no user config directory")
	}
	var paths []string
	for _, app := range proxyAppNames {
		dir := filepath.Join(base, app)
		if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
			dir = filepath.Join(base, proxyAppAuthor, app)
		}
		paths = append(paths, filepath.Join(dir, portFileName))
	}
	return paths, nil
}

// readPortFile reads the first line of the file and parses it as a port
// number.
func readPortFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Annotate(err, "failed to open '%s'", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, errors.Reason("'%s' is empty", path)
	}
	port, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return 0, errors.Annotate(err, "invalid port in '%s'", path)
	}
	return port, nil
}

// checkPort probes the proxy endpoint on the given port with a short GET
// carrying the application id. Any HTTP response, regardless of its status,
// counts as a detected proxy.
func checkPort(ctx context.Context, appID string, client *http.Client, port int) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL(port), nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-tr-applicationid", appID)
	resp, err := client.Do(req)
	if err != nil {
		logging.Debugf(ctx, "probe of port %d failed: %s", port, err.Error())
		return false
	}
	resp.Body.Close()
	logging.Debugf(ctx, "port %d is detected: %d", port, resp.StatusCode)
	return true
}

// ResolvePort locates the port of a running proxy: first from the proxy's
// .portInUse file, then by probing the well-known default ports. It returns
// an error when neither method finds a proxy; the caller treats this as
// "endpoint unavailable" and does not attempt requests.
func ResolvePort(ctx context.Context, appID string, client *http.Client) (int, error) {
	paths, err := portFilePaths()
	if err != nil {
		logging.Warningf(ctx, "cannot locate %s: %s", portFileName, err.Error())
	}
	for _, path := range paths {
		port, err := readPortFile(path)
		if err != nil {
			logging.Debugf(ctx, "skipping port file: %s", err.Error())
			continue
		}
		logging.Infof(ctx, "port %d was retrieved from %s", port, path)
		return port, nil
	}
	logging.Warningf(ctx,
		"file %s was not found, falling back to default port numbers", portFileName)
	for _, port := range fallbackPorts {
		if checkPort(ctx, appID, client, port) {
			return port, nil
		}
	}
	return 0, errors.Reason(
		"no proxy port identified; check that the desktop application " +
			"or the API proxy is running")
}
