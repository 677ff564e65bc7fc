package config

import "log"

func logInvalid(key, value string, def, min, max int) {
	log.Printf("[Config] WARNING: invalid %s=%q (must be %d-%d), using default %d", key, value, min, max, def)
}
