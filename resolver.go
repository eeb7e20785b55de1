package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// ResolvError type
type ResolvError struct {
	qname, net  string
	nameservers []string
}

// Error formats a ResolvError
func (e ResolvError) Error() string {
	errmsg := fmt.Sprintf("%s resolv failed on %s (%s)", e.qname, strings.Join(e.nameservers, "; "), e.net)
	return errmsg
}

// NameError is returned when a name does not exist. This is frequent and
// expected, a clean blacklist verdict arrives as a NameError.
type NameError struct {
	qname string
}

// Error formats a NameError
func (e NameError) Error() string {
	return e.qname + " " + "not found"
}

// HostResolver is the lookup operation the checker consumes
type HostResolver interface {
	LookupHost(name string) ([]string, error)
}

// Resolver type
type Resolver struct {
	nameservers []string
	interval    time.Duration
	timeout     time.Duration
}

// NewResolver returns a Resolver querying the configured nameservers
func NewResolver(config *config) *Resolver {
	interval := config.Interval
	if interval <= 0 {
		interval = 200
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5
	}

	return &Resolver{
		nameservers: config.Nameservers,
		interval:    time.Duration(interval) * time.Millisecond,
		timeout:     time.Duration(timeout) * time.Second,
	}
}

// Lookup will ask each nameserver in top-to-bottom fashion, starting a new request
// in every interval, and return as early as possbile (have an answer).
// It returns an error if no request has succeeded.
func (r *Resolver) Lookup(net string, req *dns.Msg) (message *dns.Msg, err error) {
	c := &dns.Client{
		Net:          net,
		ReadTimeout:  r.Timeout(),
		WriteTimeout: r.Timeout(),
	}

	qname := req.Question[0].Name

	res := make(chan *dns.Msg, 1)
	var wg sync.WaitGroup
	L := func(nameserver string) {
		defer wg.Done()
		r, _, err := c.Exchange(req, nameserver)
		if err != nil {
			logger.Warningf("%s socket error on %s: %s", qname, nameserver, err)
			return
		}
		// NXDOMAIN is a valid answer here, only SERVFAIL is retried
		if r != nil && r.Rcode != dns.RcodeSuccess && r.Rcode != dns.RcodeNameError {
			logger.Debugf("%s failed to get a valid answer on %s", qname, nameserver)
			if r.Rcode == dns.RcodeServerFailure {
				return
			}
		} else {
			logger.Debugf("%s resolv on %s (%s)", UnFqdn(qname), nameserver, net)
		}
		select {
		case res <- r:
		default:
		}
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Start lookup on each nameserver top-down, in every interval
	for _, nameserver := range r.Nameservers() {
		wg.Add(1)
		go L(nameserver)
		// but exit early, if we have an answer
		select {
		case r := <-res:
			return r, nil
		case <-ticker.C:
			continue
		}
	}

	// wait for all the namservers to finish
	wg.Wait()
	select {
	case r := <-res:
		return r, nil
	default:
		return nil, ResolvError{qname, net, r.Nameservers()}
	}
}

// LookupHost resolves name to the textual form of its A records. A name that
// does not exist yields a NameError, any other failure a resolver error.
func (r *Resolver) LookupHost(name string) ([]string, error) {
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), dns.TypeA)

	msg, err := r.Lookup("udp", req)
	if err != nil {
		return nil, err
	}

	if msg.Rcode == dns.RcodeNameError {
		return nil, NameError{name}
	}
	if msg.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s query failed with rcode %d", name, msg.Rcode)
	}

	var addrs []string
	for _, answer := range msg.Answer {
		if a, ok := answer.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}

	if len(addrs) == 0 {
		return nil, NameError{name}
	}

	return addrs, nil
}

// Nameservers return the array of nameservers
func (r *Resolver) Nameservers() (ns []string) {
	return r.nameservers
}

// Timeout returns the resolver timeout
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}
