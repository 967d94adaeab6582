package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const paramFilename = "param.yaml"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
}

func NewServerConfig(configDir string, debugMode bool, simulationMode bool) *ServerConfig {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	// Check Configuration folder
	_, err := os.Stat(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Printf("Creation of config folder: %s", configDir)
			err = os.Mkdir(configDir, 0770)
			if err != nil {
				logrus.Fatalf("Unable to create config folder: %v\n", err)
			}
		} else {
			logrus.Fatalf("Unable to access config folder: %s", configDir)
		}
	}

	// Open param file
	rawConfig, err := os.ReadFile(serverConfig.GetCompleteParamFilename())
	if err == nil {
		// Interpret param file
		serverConfig.ServerParam = &ServerParam{}
		err = yaml.Unmarshal(rawConfig, serverConfig.ServerParam)
		if err != nil {
			logrus.Fatalf("Unable to interpret config file: %v\n", err)
		}
	} else {
		// Create default param file
		logrus.Infof("Create default param file")
		serverConfig.ServerParam = &ServerParam{}

		err = yaml.Unmarshal(ParamDefaultFile, serverConfig.ServerParam)
		if err != nil {
			logrus.Fatalf("Unable to interpret config file: %v\n", err)
		}

		serverConfig.SaveParam()
	}

	// An empty drive section means the factory preset of the kit type.
	if serverConfig.Drive == (DriveParam{}) {
		serverConfig.Drive = DrivePreset(serverConfig.Kit.Type)
	}

	if len(serverConfig.Kit.SegmentPins) == 0 && !simulationMode {
		logrus.Fatalf("No segment pins configured for kit type %s", serverConfig.Kit.Type)
	}

	return serverConfig
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}

func (sc *ServerConfig) SaveParam() {
	logrus.Debugf("Save param file: %s", sc.GetCompleteParamFilename())
	rawConfig, err := yaml.Marshal(*sc.ServerParam)
	if err != nil {
		logrus.Fatalf("Unable to serialize param file: %v\n", err)
	}
	err = os.WriteFile(sc.GetCompleteParamFilename(), rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save param file: %v\n", err)
	}
}

// SegmentCount is the number of segments of the configured kit.
func (sc *ServerConfig) SegmentCount() int {
	if len(sc.Kit.SegmentPins) > 0 {
		return len(sc.Kit.SegmentPins)
	}
	switch sc.Kit.Type {
	case "single":
		return 1
	case "3bars":
		return 3
	case "7bars":
		return 7
	case "15seg":
		return 15
	default:
		return 1
	}
}
