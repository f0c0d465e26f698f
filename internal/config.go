package internal

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Config holds every tunable of the server binary. Values come from the
// environment, with a .env file as a development convenience.
type Config struct {
	Port      int    `env:"PORT,default=8080"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`
	JWTSecret string `env:"JWT_SECRET,required=true"`

	AdminSecretKey    string        `env:"ADMIN_SECRET_KEY,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	FileStorePath  string `env:"FILE_STORE_PATH,required=true"`
	PublicBaseURL  string `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`

	CensoredWords        string `env:"CENSORED_WORDS"`
	CharacterReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	LimitMessages   *int          `env:"LIMIT_MESSAGES"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	CookieSecure    bool          `env:"COOKIE_SECURE,default=false"`
}

// ReplacementRune returns the censor replacement as a single rune.
func (c Config) ReplacementRune() (rune, error) {
	if utf8.RuneCountInString(c.CharacterReplacement) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", c.CharacterReplacement)
	}
	r, _ := utf8.DecodeRuneInString(c.CharacterReplacement)
	return r, nil
}
