package main

import (
	"net"
	"strings"
	"time"
)

// MalformedHostError type, returned for ipv6 literals which have no
// blacklist query form
type MalformedHostError struct {
	host string
}

// Error formats an error for the MalformedHostError type
func (e MalformedHostError) Error() string {
	return "unsupported ipv6 literal: " + e.host
}

// CheckResult is the outcome of a blacklist check. Domain is the
// domain-check string that was queried against the zone, empty when no
// query was issued.
type CheckResult struct {
	Host   string `json:"host"`
	Domain string `json:"domain"`
	Level  int    `json:"level"`
	Listed bool   `json:"listed"`
}

// SURBL checks hostnames against a surbl-style dns blacklist zone
type SURBL struct {
	store     *TLDStore
	resolver  HostResolver
	cache     ResultCache
	whitelist *MemoryListCache
	blacklist *MemoryListCache
	checkLog  *MemoryCheckLog
	zone      string
	strict    bool
}

// NewSURBL creates a SURBL from the config, wiring the tld store, the
// result cache and the manual lists
func NewSURBL(config *config, resolver HostResolver) (*SURBL, error) {
	store, err := NewTLDStore(config.StoreDir, config.TwoLevelURL, config.ThreeLevelURL,
		time.Duration(config.ConnectTimeout)*time.Second,
		time.Duration(config.ReadTimeout)*time.Second)
	if err != nil {
		return nil, err
	}

	s := &SURBL{
		store:     store,
		resolver:  resolver,
		cache:     makeResultCache(config.Maxcount, time.Duration(config.Expire)*time.Second),
		whitelist: makeListCache(),
		blacklist: makeListCache(),
		checkLog:  makeCheckLog(config.CheckLogCap),
		zone:      config.Zone,
		strict:    config.Strict,
	}

	for _, entry := range config.Whitelist {
		s.whitelist.Set(entry, true)
	}
	for _, entry := range config.Blacklist {
		s.blacklist.Set(entry, true)
	}

	return s, nil
}

// Load refreshes the tld tables, returning whether anything was reloaded
func (s *SURBL) Load() (bool, error) {
	return s.store.Refresh()
}

// Lookup runs the suffix resolution and blacklist query for hostname and
// returns the full result. The manual lists, the result cache and the
// activation state are not consulted, Check layers those on top.
func (s *SURBL) Lookup(hostname string) (CheckResult, error) {
	host := strings.ToLower(UnFqdn(hostname))
	result := CheckResult{Host: host}

	tokens := splitLabels(host)
	levels := 2

	// An address literal is detected syntactically. The blacklist convention
	// wants the octets reversed, least specific last, and all four checked.
	if ip := net.ParseIP(host); ip != nil {
		v4 := ip.To4()
		if v4 == nil {
			return result, MalformedHostError{host}
		}
		tokens = splitLabels(v4.String())
		for i, j := 0, len(tokens)-1; i < j; i, j = i+1, j-1 {
			tokens[i], tokens[j] = tokens[j], tokens[i]
		}
		levels = 4
	}

	logger.Debugf("domain tokens: %v", tokens)

	// local hosts are never listed and never queried
	if len(tokens) < 2 {
		return result, nil
	}

	tables, err := s.store.Tables()
	if err != nil {
		return result, err
	}

	for {
		domCheck := hostLevel(tokens, levels)
		if levels == 2 {
			if _, ok := tables.Two[domCheck]; ok {
				if levels >= len(tokens) {
					// the host is itself a public suffix, nothing to check
					return result, nil
				}
				levels++
				continue
			}
		} else if levels == 3 {
			if _, ok := tables.Three[domCheck]; ok {
				if levels >= len(tokens) {
					return result, nil
				}
				levels++
				continue
			}
		}

		result.Domain = domCheck
		result.Level = levels

		logger.Infof("checking blacklist (levels=%d): %s", levels, domCheck)
		addrs, err := s.resolver.LookupHost(domCheck + "." + s.zone + ".")
		switch err.(type) {
		case nil:
			for _, addr := range addrs {
				if strings.HasPrefix(addr, "127.") {
					logger.Infof("blacklist check (LISTED): %s", domCheck)
					result.Listed = true
					return result, nil
				}
			}
		case NameError:
			// not listed
		default:
			if s.strict {
				return result, err
			}
			logger.Warningf("blacklist query failed for %s, treating as clean: %s", domCheck, err)
		}

		logger.Infof("blacklist check (CLEAN): %s", domCheck)
		break
	}

	return result, nil
}

// Check returns whether hostname is blacklisted, consulting the activation
// state, the manual lists and the result cache before running a Lookup.
func (s *SURBL) Check(hostname string) (bool, error) {
	host := strings.ToLower(UnFqdn(hostname))

	if !surbldActive {
		logger.Debugf("checking disabled, %s reported clean", host)
		return false, nil
	}

	if s.whitelist.Exists(host) {
		logger.Debugf("%s found in whitelist", host)
		return false, nil
	}

	if s.blacklist.Exists(host) {
		s.checkLog.Add(CheckLogEntry{Date: WallClock.Now().Unix(), Host: host, Listed: true})
		return true, nil
	}

	if result, err := s.cache.Get(host); err == nil {
		return result.Listed, nil
	}

	result, err := s.Lookup(host)
	if err != nil {
		return false, err
	}

	if !result.Listed && drblPeers != nil {
		result.Listed = drblCheckHostname(host)
	}

	if err := s.cache.Set(host, result); err != nil {
		logger.Debugf("result cache: %s", err)
	}
	s.checkLog.Add(CheckLogEntry{Date: WallClock.Now().Unix(), Host: host, Domain: result.Domain, Listed: result.Listed})

	return result.Listed, nil
}

// splitLabels tokenizes a hostname on dots, dropping empty labels
func splitLabels(host string) []string {
	return strings.FieldsFunc(host, func(r rune) bool {
		return r == '.'
	})
}

// hostLevel joins the trailing `levels` labels back into a domain string
func hostLevel(tokens []string, levels int) string {
	offset := len(tokens) - levels
	return strings.Join(tokens[offset:offset+levels], ".")
}
