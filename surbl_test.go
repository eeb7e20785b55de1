package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	answers map[string][]string
	err     error
	queries []string
}

func (r *fakeResolver) LookupHost(name string) ([]string, error) {
	r.queries = append(r.queries, name)
	if r.err != nil {
		return nil, r.err
	}
	if addrs, ok := r.answers[name]; ok {
		return addrs, nil
	}
	return nil, NameError{UnFqdn(name)}
}

func makeTestSURBL(t *testing.T, resolver HostResolver) *SURBL {
	testConfig := &config{
		StoreDir: t.TempDir(),
		Zone:     "multi.surbl.org",
		Expire:   600,
	}

	surbl, err := NewSURBL(testConfig, resolver)
	assert.Nil(t, err)

	surbl.store.tables.Store(&TLDTables{
		Two:   map[string]struct{}{"co.uk": {}, "com.au": {}},
		Three: map[string]struct{}{"blogspot.co.uk": {}},
	})

	return surbl
}

func TestLookupClean(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("www.acme.com")
	assert.Nil(t, err)
	assert.False(t, result.Listed)
	assert.Equal(t, "acme.com", result.Domain)
	assert.Equal(t, 2, result.Level)
	assert.Equal(t, []string{"acme.com.multi.surbl.org."}, resolver.queries)
}

func TestLookupListed(t *testing.T) {
	resolver := &fakeResolver{answers: map[string][]string{
		"acme.com.multi.surbl.org.": {"127.0.0.2"},
	}}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("www.acme.com")
	assert.Nil(t, err)
	assert.True(t, result.Listed)
	assert.Equal(t, "acme.com", result.Domain)
}

func TestLookupNonLoopbackAnswer(t *testing.T) {
	// only answers in 127/8 signal a listing
	resolver := &fakeResolver{answers: map[string][]string{
		"acme.com.multi.surbl.org.": {"64.233.160.1"},
	}}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("www.acme.com")
	assert.Nil(t, err)
	assert.False(t, result.Listed)
}

func TestLookupTwoLevelEscalation(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("www.example.co.uk")
	assert.Nil(t, err)
	assert.False(t, result.Listed)
	assert.Equal(t, "example.co.uk", result.Domain)
	assert.Equal(t, 3, result.Level)
	assert.Equal(t, []string{"example.co.uk.multi.surbl.org."}, resolver.queries)
}

func TestLookupThreeLevelEscalation(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("www.foo.blogspot.co.uk")
	assert.Nil(t, err)
	assert.Equal(t, "foo.blogspot.co.uk", result.Domain)
	assert.Equal(t, 4, result.Level)
	assert.Equal(t, []string{"foo.blogspot.co.uk.multi.surbl.org."}, resolver.queries)
}

func TestLookupBareSuffix(t *testing.T) {
	// a bare public suffix is not a registrable domain and is never queried
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("co.uk")
	assert.Nil(t, err)
	assert.False(t, result.Listed)
	assert.Empty(t, result.Domain)
	assert.Empty(t, resolver.queries)
}

func TestLookupIPv4Literal(t *testing.T) {
	resolver := &fakeResolver{answers: map[string][]string{
		"4.3.2.1.multi.surbl.org.": {"127.0.0.2"},
	}}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("1.2.3.4")
	assert.Nil(t, err)
	assert.True(t, result.Listed)
	assert.Equal(t, "4.3.2.1", result.Domain)
	assert.Equal(t, 4, result.Level)
}

func TestLookupIPv6Literal(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	_, err := surbl.Lookup("2001:db8::1")
	if _, ok := err.(MalformedHostError); !ok {
		t.Error("expected MalformedHostError, got", err)
	}
	assert.Empty(t, resolver.queries)
}

func TestLookupSingleLabel(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("localhost")
	assert.Nil(t, err)
	assert.False(t, result.Listed)
	assert.Empty(t, resolver.queries)
}

func TestLookupTablesNotLoaded(t *testing.T) {
	testConfig := &config{StoreDir: t.TempDir(), Zone: "multi.surbl.org"}
	surbl, err := NewSURBL(testConfig, &fakeResolver{})
	assert.Nil(t, err)

	_, err = surbl.Lookup("www.acme.com")
	if _, ok := err.(TablesNotLoaded); !ok {
		t.Error("expected TablesNotLoaded, got", err)
	}
}

func TestLookupIdempotent(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)

	first, err := surbl.Lookup("www.example.co.uk")
	assert.Nil(t, err)
	second, err := surbl.Lookup("www.example.co.uk")
	assert.Nil(t, err)

	assert.Equal(t, first, second)
	// one blacklist query per lookup, never one per escalation step
	assert.Len(t, resolver.queries, 2)
}

func TestLookupFailOpen(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("resolver unreachable")}
	surbl := makeTestSURBL(t, resolver)

	result, err := surbl.Lookup("www.acme.com")
	assert.Nil(t, err)
	assert.False(t, result.Listed)
}

func TestLookupStrict(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("resolver unreachable")}
	surbl := makeTestSURBL(t, resolver)
	surbl.strict = true

	_, err := surbl.Lookup("www.acme.com")
	assert.NotNil(t, err)
}

func TestCheckWhitelist(t *testing.T) {
	resolver := &fakeResolver{answers: map[string][]string{
		"acme.com.multi.surbl.org.": {"127.0.0.2"},
	}}
	surbl := makeTestSURBL(t, resolver)
	surbl.whitelist.Set("www.acme.com", true)

	listed, err := surbl.Check("www.acme.com")
	assert.Nil(t, err)
	assert.False(t, listed)
	assert.Empty(t, resolver.queries)
}

func TestCheckManualBlacklist(t *testing.T) {
	resolver := &fakeResolver{}
	surbl := makeTestSURBL(t, resolver)
	surbl.blacklist.Set("*.badco.example", true)

	listed, err := surbl.Check("www.badco.example")
	assert.Nil(t, err)
	assert.True(t, listed)
	assert.Empty(t, resolver.queries)
}

func TestCheckCachesResult(t *testing.T) {
	resolver := &fakeResolver{answers: map[string][]string{
		"acme.com.multi.surbl.org.": {"127.0.0.2"},
	}}
	surbl := makeTestSURBL(t, resolver)

	listed, err := surbl.Check("www.acme.com")
	assert.Nil(t, err)
	assert.True(t, listed)

	listed, err = surbl.Check("www.acme.com")
	assert.Nil(t, err)
	assert.True(t, listed)

	assert.Len(t, resolver.queries, 1)
}

func TestCheckInactive(t *testing.T) {
	resolver := &fakeResolver{answers: map[string][]string{
		"acme.com.multi.surbl.org.": {"127.0.0.2"},
	}}
	surbl := makeTestSURBL(t, resolver)

	surbldActive = false
	defer func() { surbldActive = true }()

	listed, err := surbl.Check("www.acme.com")
	assert.Nil(t, err)
	assert.False(t, listed)
	assert.Empty(t, resolver.queries)
}

func TestSplitLabels(t *testing.T) {
	assert.Equal(t, []string{"www", "acme", "com"}, splitLabels("www.acme.com"))
	assert.Equal(t, []string{"www", "acme", "com"}, splitLabels("www..acme.com"))
	assert.Empty(t, splitLabels(""))
}

func TestHostLevel(t *testing.T) {
	tokens := []string{"www", "example", "co", "uk"}
	assert.Equal(t, "co.uk", hostLevel(tokens, 2))
	assert.Equal(t, "example.co.uk", hostLevel(tokens, 3))
	assert.Equal(t, "www.example.co.uk", hostLevel(tokens, 4))
}
