package config

// SchedulerConfigs the map of available configurations. Every configuration is
// applied on top of "default", so it only needs the values it changes.
var SchedulerConfigs = map[string]string{
	"default": defaultConfig,
	"local":   localConfig,
	"ci":      ciConfig,
}

// defaultConfig the values used for anything a selected configuration leaves unset
const defaultConfig = `{
	"Cluster": {
		"Type": "static",
		"Nodes": ["localhost"],
		"Timeout": "30s",
		"MaxRetries": 3
	},
	"SchedulerConfig": {
		"FanOutFactor": 3,
		"RebalanceAt": 3,
		"AbandonAt": 6,
		"CommandTimeout": "300s",
		"KillTimeout": "5s",
		"MaxPasses": 10,
		"LockTimeout": "10s",
		"RebalancePolicy": "first"
	},
	"Command": {
		"Transport": "ssh -o BatchMode=yes -o ConnectTimeout=10",
		"Runner": "python{version} -m pytest",
		"Version": "3",
		"Args": ["-q"]
	}
}`

// localConfig runs every job on this machine, with no transport.
const localConfig = `{
	"Cluster": {
		"Type": "static",
		"Nodes": ["localhost"]
	},
	"SchedulerConfig": {
		"CommandTimeout": "60s",
		"MaxPasses": 3
	},
	"Command": {
		"Transport": ""
	}
}`

// ciConfig discovers reachable build hosts with a ping sweep and gives up on
// jobs once they are abandoned.
const ciConfig = `{
	"Cluster": {
		"Type": "command",
		"Command": "fping -a -q -r 1 -g 10.0.0.0/24",
		"RegexCapture": "^([0-9.]+)$",
		"Timeout": "60s",
		"MaxRetries": 5
	},
	"SchedulerConfig": {
		"MaxPasses": 8,
		"RetireAbandoned": true,
		"RebalancePolicy": "random",
		"StartRate": 20,
		"StartBurst": 10
	}
}`
