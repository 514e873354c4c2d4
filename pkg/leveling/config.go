package leveling

import (
	"encoding/json"
	"os"

	"github.com/thebibbi/leveling/pkg/kinematics"
)

const DefaultConfigFile = "leveling.json"

// RigConfig holds the persisted configuration of a leveling rig.
type RigConfig struct {
	Platform kinematics.Variant `json:"platform"`
	Geometry kinematics.Config  `json:"geometry"`
	IMU      IMUConfig          `json:"imu"`
	Serial   SerialConfig       `json:"serial"`
	Tuning   Tuning             `json:"tuning"`
}

// IMUConfig selects the orientation transport.
type IMUConfig struct {
	Transport string `json:"transport"` // "udp" or "http"
	Listen    string `json:"listen"`    // bind address, e.g. ":5555"
}

// SerialConfig selects the actuator link.
type SerialConfig struct {
	Port      string `json:"port,omitempty"`
	Baud      int    `json:"baud,omitempty"`
	Simulated bool   `json:"simulated"`
}

// DefaultRigConfig returns a fully simulated tripod rig listening for UDP
// orientation packets.
func DefaultRigConfig() RigConfig {
	return RigConfig{
		Platform: kinematics.Tripod,
		Geometry: kinematics.DefaultConfig(),
		IMU:      IMUConfig{Transport: "udp", Listen: ":5555"},
		Serial:   SerialConfig{Simulated: true},
		Tuning:   DefaultTuning(),
	}
}

// LoadConfig loads configuration from the default config file.
func LoadConfig() (*RigConfig, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file.
func LoadConfigFrom(path string) (*RigConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg RigConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves configuration to the default config file.
func (c *RigConfig) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file.
func (c *RigConfig) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists.
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
