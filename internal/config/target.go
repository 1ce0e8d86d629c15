package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultUnreviewedList = "Unreviewed Ads"
	DefaultReviewedList   = "Reviewed Ads"

	dateLayout = "2006-01-02"
)

// Target is one search target: a listing URL, the terms to look for and the
// board that receives the hits.
type Target struct {
	Path      string    `mapstructure:"-"`
	URL       string    `mapstructure:"url" validate:"required,url"`
	Terms     []string  `mapstructure:"terms" validate:"required,min=1,dive,required"`
	StartDate time.Time `mapstructure:"-"`

	APIKey      string `mapstructure:"api_key" validate:"required"`
	APISecret   string `mapstructure:"api_secret" validate:"required"`
	OAuthToken  string `mapstructure:"oauth_token" validate:"required"`
	OAuthSecret string `mapstructure:"oauth_secret" validate:"required"`

	BoardName      string `mapstructure:"board_name" validate:"required"`
	UnreviewedList string `mapstructure:"unreviewed_list" validate:"required"`
	ReviewedList   string `mapstructure:"reviewed_list" validate:"required"`
}

// Error reports a missing or malformed target file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml key names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadTarget reads and validates a single target file.
func LoadTarget(path string) (*Target, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("unreviewed_list", DefaultUnreviewedList)
	v.SetDefault("reviewed_list", DefaultReviewedList)

	v.SetEnvPrefix("ADBOARD")
	v.BindEnv("api_key", "ADBOARD_API_KEY")
	v.BindEnv("api_secret", "ADBOARD_API_SECRET")
	v.BindEnv("oauth_token", "ADBOARD_OAUTH_TOKEN")
	v.BindEnv("oauth_secret", "ADBOARD_OAUTH_SECRET")

	if err := v.ReadInConfig(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	return decodeTarget(v, path)
}

func decodeTarget(v *viper.Viper, path string) (*Target, error) {
	var t Target
	if err := v.Unmarshal(&t); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	t.Path = path

	start, err := parseDate(v.Get("start_date"))
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	t.StartDate = start

	for i, term := range t.Terms {
		t.Terms[i] = strings.ToLower(strings.TrimSpace(term))
	}

	if err := validate.Struct(&t); err != nil {
		return nil, &Error{Path: path, Err: describeValidation(err)}
	}

	return &t, nil
}

// parseDate accepts either a decoded timestamp or an ISO date string and
// returns midnight UTC of that calendar day.
func parseDate(raw any) (time.Time, error) {
	switch d := raw.(type) {
	case nil:
		return time.Time{}, errors.New("start_date is required")
	case time.Time:
		return Date(d), nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, errors.New("start_date is required")
		}
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return Date(t), nil
		}
		return time.Time{}, fmt.Errorf("start_date %q is not an ISO date (YYYY-MM-DD)", s)
	default:
		return time.Time{}, fmt.Errorf("start_date has unsupported type %T", raw)
	}
}

// Date truncates t to its calendar day, expressed as midnight UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("missing or invalid keys: %s", strings.Join(fields, ", "))
}
