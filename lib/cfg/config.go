package cfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ConfigKey string

var (
	configLocation = "/etc/app/"

	ErrNotConfigured = errors.New("config key is not set")
)

func SetConfigLocation(folder string) error {
	fi, err := os.Stat(folder)
	if os.IsNotExist(err) {
		return fmt.Errorf("folder '%s' does not exists", folder)
	}
	if err != nil {
		return fmt.Errorf("error reading folder '%s': %w", folder, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("config location '%s' must be a folder", folder)
	}
	configLocation = folder
	if !strings.HasSuffix(configLocation, "/") {
		configLocation += "/"
	}
	return nil
}

func Location() string {
	return configLocation
}

func FilePath(key ConfigKey) string {
	return configLocation + string(key)
}

func Has(key ConfigKey) bool {
	fi, err := os.Stat(FilePath(key))
	return err == nil && !fi.IsDir()
}

func Bytes(key ConfigKey) (value []byte, err error) {
	file := configLocation + string(key)
	value, err = os.ReadFile(file)
	if os.IsNotExist(err) {
		err = fmt.Errorf("error reading config file '%s': %w", file, ErrNotConfigured)
		return
	}
	if err != nil {
		err = fmt.Errorf("error reading config file '%s': %w", file, err)
	}
	return
}

func BytesOrPanic(key ConfigKey) (res []byte) {
	res, err := Bytes(key)
	if err != nil {
		panic(err)
	}
	return
}

// String returns the trimmed content of the key file.
func String(key ConfigKey) (value string, err error) {
	raw, err := Bytes(key)
	if err != nil {
		return "", err
	}
	value = strings.TrimSpace(string(raw))
	return
}

func StringOrPanic(key ConfigKey) (res string) {
	res, err := String(key)
	if err != nil {
		panic(err)
	}
	return
}

func StringOrDefault(key ConfigKey, def string) string {
	res, err := String(key)
	if err != nil || res == "" {
		return def
	}
	return res
}

func Bool(key ConfigKey) (value bool, err error) {
	str, err := String(key)
	if err != nil {
		return
	}
	value, err = strconv.ParseBool(str)
	if err != nil {
		err = fmt.Errorf("config key '%s' is not a boolean: %w", key, err)
	}
	return
}

func BoolOrDefault(key ConfigKey, def bool) bool {
	res, err := Bool(key)
	if err != nil {
		return def
	}
	return res
}

// Object decodes the key file as YAML when the key carries a .yaml or .yml
// extension and as JSON otherwise.
func Object[T any](key ConfigKey) (res T, err error) {
	bytes, err := Bytes(key)
	if err != nil {
		return
	}
	if isYAML(key) {
		err = yaml.Unmarshal(bytes, &res)
	} else {
		err = json.Unmarshal(bytes, &res)
	}
	if err != nil {
		err = fmt.Errorf("error decoding config key '%s': %w", key, err)
	}
	return
}

func ObjectOrPanic[T any](key ConfigKey) (res T) {
	res, err := Object[T](key)
	if err != nil {
		panic(err)
	}
	return
}

func isYAML(key ConfigKey) bool {
	k := strings.ToLower(string(key))
	return strings.HasSuffix(k, ".yaml") || strings.HasSuffix(k, ".yml")
}
