package main

import (
	drblpeer "github.com/elico/drbl-peer"
)

var drblPeers *drblpeer.DrblPeers

func startDrbl(config *config) {
	if config.UseDrbl == 0 {
		return
	}

	peers, err := drblpeer.NewPeerListFromYamlFile(config.DrblPeersFilename,
		config.DrblBlockWeight, int(config.DrblTimeout), config.DrblDebug > 0)
	if err != nil {
		logger.Errorf("could not load drbl peers from %s: %s", config.DrblPeersFilename, err)
		return
	}

	drblPeers = peers
	logger.Noticef("drbl peers loaded from %s", config.DrblPeersFilename)
}

func drblCheckHostname(hostname string) bool {
	testhost := UnFqdn(hostname)

	block, weight := drblPeers.Check(testhost)
	if block {
		logger.Infof("drbl: %s got blocked with weight %d", testhost, weight)
		return true
	}

	return false
}
