package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// tldExpire is how long a cached tld file is considered fresh
const tldExpire = 24 * time.Hour

// TablesNotLoaded type
type TablesNotLoaded struct {
}

// Error formats an error for the TablesNotLoaded type
func (e TablesNotLoaded) Error() string {
	return "tld tables not loaded"
}

// TLDTables is an immutable snapshot of the two-level and three-level
// public suffix sets. A snapshot is fully built before it is published,
// concurrent readers never observe a partial set.
type TLDTables struct {
	Two   map[string]struct{}
	Three map[string]struct{}
}

// TLDStore maintains the tld tables, caching them on disk and refreshing
// them from the surbl tld urls at most once per tldExpire.
type TLDStore struct {
	storeDir       string
	fileTwo        string
	fileThree      string
	urlTwo         string
	urlThree       string
	connectTimeout time.Duration
	readTimeout    time.Duration

	mu     sync.Mutex
	tables atomic.Pointer[TLDTables]
}

// NewTLDStore creates a TLDStore caching into storeDir, creating the
// directory when missing.
func NewTLDStore(storeDir, urlTwo, urlThree string, connectTimeout, readTimeout time.Duration) (*TLDStore, error) {
	if storeDir == "" {
		storeDir = filepath.Join(os.TempDir(), "surbld")
	}
	if err := os.MkdirAll(storeDir, 0700); err != nil {
		return nil, fmt.Errorf("invalid store dir %s: %s", storeDir, err)
	}
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	if readTimeout <= 0 {
		readTimeout = 60 * time.Second
	}

	return &TLDStore{
		storeDir:       storeDir,
		fileTwo:        filepath.Join(storeDir, "tlds.2"),
		fileThree:      filepath.Join(storeDir, "tlds.3"),
		urlTwo:         urlTwo,
		urlThree:       urlThree,
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
	}, nil
}

// Tables returns the current snapshot
func (t *TLDStore) Tables() (*TLDTables, error) {
	tables := t.tables.Load()
	if tables == nil {
		return nil, TablesNotLoaded{}
	}
	return tables, nil
}

// Purge removes the cached tld files so the next Refresh downloads them
// unconditionally
func (t *TLDStore) Purge() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, file := range []string{t.fileTwo, t.fileThree} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			logger.Warningf("could not remove %s: %s", file, err)
		}
	}
}

// Refresh reloads any tld table whose cache file is older than tldExpire,
// fetching from the remote url with a conditional request. It returns true
// when at least one table was (re)loaded. Only one refresh runs at a time.
func (t *TLDStore) Refresh() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var currentTwo, currentThree map[string]struct{}
	if current := t.tables.Load(); current != nil {
		currentTwo = current.Two
		currentThree = current.Three
	}

	two, reloadedTwo, err := t.refreshTable(t.fileTwo, t.urlTwo, currentTwo)
	if err != nil {
		return false, err
	}
	three, reloadedThree, err := t.refreshTable(t.fileThree, t.urlThree, currentThree)
	if err != nil {
		return false, err
	}

	if !reloadedTwo && !reloadedThree {
		return false, nil
	}

	t.tables.Store(&TLDTables{Two: two, Three: three})
	return true, nil
}

// refreshTable handles a single tld table. current is the in-memory set for
// this table, nil when it has never been loaded.
func (t *TLDStore) refreshTable(cacheFile, url string, current map[string]struct{}) (map[string]struct{}, bool, error) {
	var mtime time.Time
	if info, err := os.Stat(cacheFile); err == nil {
		mtime = info.ModTime()
	}

	reload := false
	if mtime.IsZero() || WallClock.Now().Sub(mtime) > tldExpire {
		status, err := t.fetch(url, cacheFile, mtime)
		switch {
		case err != nil:
			if mtime.IsZero() {
				if current != nil {
					return current, false, nil
				}
				return nil, false, fmt.Errorf("could not fetch %s and no cached copy exists: %s", url, err)
			}
			logger.Warningf("tld fetch failed for %s, using cached copy: %s", url, err)
			reload = current == nil
		case status == http.StatusOK:
			reload = true
		default:
			// not modified
			reload = current == nil
		}
	} else if current == nil {
		reload = true
	}

	if !reload {
		return current, false, nil
	}

	set, err := loadSetFromFile(cacheFile)
	if err != nil {
		return nil, false, err
	}
	return set, true, nil
}

// fetch downloads url into cacheFile, sending the cache file mtime as
// If-Modified-Since. A 304 leaves the cache file untouched.
func (t *TLDStore) fetch(url, cacheFile string, mtime time.Time) (int, error) {
	client := &http.Client{
		Timeout: t.readTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: t.connectTimeout}).DialContext,
		},
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if !mtime.IsZero() {
		req.Header.Set("If-Modified-Since", mtime.UTC().Format(http.TimeFormat))
	}

	response, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error downloading source: %s", err)
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK:
		output, err := os.Create(cacheFile)
		if err != nil {
			return 0, fmt.Errorf("error creating file: %s", err)
		}
		defer output.Close()

		if _, err := io.Copy(output, response.Body); err != nil {
			return 0, fmt.Errorf("error copying output: %s", err)
		}

		logger.Noticef("fetched %s", url)
		return response.StatusCode, nil
	case http.StatusNotModified:
		logger.Noticef("not modified %s", url)
		return response.StatusCode, nil
	default:
		return response.StatusCode, fmt.Errorf("unexpected status %s fetching %s", response.Status, url)
	}
}

func loadSetFromFile(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening tld file: %s", err)
	}
	defer file.Close()

	set := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning tld file: %s", err)
	}

	logger.Noticef("loaded %d tlds from %s", len(set), filepath.Base(path))
	return set, nil
}
