package client

import (
	"os"
	"time"

	"streamhttp/transport"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileOptions is the on-disk layout of [Options].
type fileOptions struct {
	Timeout         time.Duration       `yaml:"timeout"`
	MaxRedirects    *int                `yaml:"maxRedirects"`
	FollowRedirects *bool               `yaml:"followRedirects"`
	RedirectToGet   []int               `yaml:"redirectToGet"`
	CookieFile      string              `yaml:"cookieFile"`
	DefaultHeaders  orderedHeaders      `yaml:"defaultHeaders"`
	Transport       map[string]any      `yaml:"transport"`
}

type headerEntry struct {
	name   string
	values []string
}

// orderedHeaders decodes a header mapping in file order.
type orderedHeaders []headerEntry

func (h *orderedHeaders) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: defaultHeaders must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var values []string
		if value.Kind == yaml.ScalarNode {
			values = []string{value.Value}
		} else if err := value.Decode(&values); err != nil {
			return errors.Wrapf(err, "header %q", key.Value)
		}
		*h = append(*h, headerEntry{name: key.Value, values: values})
	}
	return nil
}

// LoadOptionsFile reads YAML options from path on top of [DefaultOptions].
//
//	timeout: 30s
//	maxRedirects: 5
//	redirectToGet: [301, 302, 303]
//	defaultHeaders:
//	  User-Agent: [fetch/1.0]
//	transport:
//	  connect_timeout: 5s
func LoadOptionsFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrap(err, "reading options file")
	}
	return ParseOptions(data)
}

func ParseOptions(data []byte) (Options, error) {
	var file fileOptions
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Options{}, errors.Wrap(err, "parsing yaml")
	}

	opts := DefaultOptions()
	opts.Transfer.Timeout = file.Timeout
	opts.Transfer.CookieFile = file.CookieFile
	if file.MaxRedirects != nil {
		if *file.MaxRedirects < 0 {
			return Options{}, errors.New("maxRedirects must not be negative")
		}
		opts.Redirect.Max = *file.MaxRedirects
	}
	if file.FollowRedirects != nil {
		opts.Redirect.Follow = *file.FollowRedirects
	}
	if file.RedirectToGet != nil {
		opts.Redirect.ToGet = file.RedirectToGet
	}

	for _, header := range file.DefaultHeaders {
		opts.DefaultHeaders.Set(header.name, header.values...)
	}

	for rawKey, rawValue := range file.Transport {
		key := transport.OptionKey(rawKey)
		value, err := transportValue(key, rawValue)
		if err != nil {
			return Options{}, err
		}
		if err := transport.ValidateOption(key, value); err != nil {
			return Options{}, errors.Wrap(err, "transport option")
		}

		if opts.Transfer.Passthrough == nil {
			opts.Transfer.Passthrough = make(map[transport.OptionKey]any)
		}
		opts.Transfer.Passthrough[key] = value
	}

	return opts, nil
}

// transportValue converts values YAML cannot type on its own.
func transportValue(key transport.OptionKey, v any) (any, error) {
	if key != transport.OptConnectTimeout {
		return v, nil
	}

	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, errors.Wrapf(err, "transport option %q", key)
	}
	return d, nil
}
