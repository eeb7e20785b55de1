package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// BuildVersion returns the build version of surbld, this should be incremented every new release
var BuildVersion = "1.0.0"

// ConfigVersion returns the version of surbld, this should be incremented every time the config changes so surbld presents a warning
var ConfigVersion = "1.0.0"

type config struct {
	Version           string
	TwoLevelURL       string
	ThreeLevelURL     string
	StoreDir          string
	Zone              string
	Log               string
	LogLevel          int
	API               string
	Nameservers       []string
	Interval          int
	Timeout           int
	ConnectTimeout    int
	ReadTimeout       int
	RefreshInterval   int
	Expire            int
	Maxcount          int
	CheckLogCap       int
	Blacklist         []string
	Whitelist         []string
	Strict            bool
	UseDrbl           int
	DrblPeersFilename string
	DrblBlockWeight   int64
	DrblTimeout       int64
	DrblDebug         int
	ReactivationDelay uint
}

var defaultConfig = `# version this config was generated from
version = "%s"

# urls of the surbl tld tables, one suffix per line
twolevelurl = "http://www.surbl.org/tld/two-level-tlds"
threelevelurl = "http://www.surbl.org/tld/three-level-tlds"

# directory the tld tables are cached in, defaults to the system temp directory when empty
storedir = ""

# blacklist zone appended to the domain-check string
zone = "multi.surbl.org"

# log configuration
# format: comma separated list of options, where options is one of
#   file:<filename>@<loglevel>
#   stderr@<loglevel>
#   syslog@<loglevel>
# loglevel: 0 = errors and important operations, 1 = checks, 2 = debug
log = "file:surbld.log@0,stderr@0"

# what kind of information should be logged, 0 = errors and important operations, 1 = checks, 2 = debug
loglevel = 0

# address to bind to for the API server
api = "127.0.0.1:8080"

# nameservers used for the blacklist queries
nameservers = ["8.8.8.8:53", "8.8.4.4:53"]

# concurrency interval for lookups in miliseconds
interval = 200

# query timeout for dns lookups in seconds
timeout = 5

# connect timeout for the tld table downloads in seconds
connecttimeout = 30

# read timeout for the tld table downloads in seconds
readtimeout = 60

# interval between background tld table refresh attempts in seconds
refreshinterval = 3600

# check result cache entry lifespan in seconds
expire = 600

# check result cache capacity, 0 for infinite
maxcount = 0

# check log capacity, 0 for infinite but not recommended (this is used for the api)
checklogcap = 5000

# manual blacklist entries, always reported as listed
blacklist = []

# manual whitelist entries, never checked against the blacklist
whitelist = []

# fail closed: surface resolver errors instead of treating them as clean
strict = false

# consult drbl peers when the surbl verdict is clean
usedrbl = 0
drblpeersfilename = "drblpeers.yaml"
drblblockweight = 128
drbltimeout = 30
drbldebug = 0

# If not zero, the delay in seconds before surbld automatically reactivates after
# having been turned off.
reactivationdelay = 300
`

// Config is the global configuration
var Config config

// LoadConfig loads the given config file
func LoadConfig(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := generateConfig(path); err != nil {
			return err
		}
	}

	if _, err := toml.DecodeFile(path, &Config); err != nil {
		return fmt.Errorf("could not load config: %s", err)
	}

	if Config.StoreDir == "" {
		Config.StoreDir = filepath.Join(os.TempDir(), "surbld")
	}

	if Config.Version != ConfigVersion {
		if Config.Version == "" {
			Config.Version = "none"
		}

		log.Printf("warning, surbld.toml is out of date!\nconfig v%s\nsurbld config v%s\nsurbld v%s\nplease update your config\n", Config.Version, ConfigVersion, BuildVersion)
	} else {
		log.Printf("surbld v%s\n", BuildVersion)
	}

	return nil
}

func generateConfig(path string) error {
	output, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not generate config: %s", err)
	}
	defer output.Close()

	r := strings.NewReader(fmt.Sprintf(defaultConfig, ConfigVersion))
	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("could not copy default config: %s", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		log.Printf("generated default config %s\n", abs)
	}

	return nil
}
