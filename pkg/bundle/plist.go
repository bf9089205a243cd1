package bundle

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

const plistHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
`

const plistFooter = `</dict>
</plist>
`

type plistEntry struct {
	key   string
	value interface{}
}

// BuildInfoPlist renders the property list describing the bundle. Key order
// is fixed so rebuilt bundles stay byte-comparable.
func BuildInfoPlist(manifest *Manifest, hasIcon bool) []byte {
	entries := []plistEntry{
		{"CFBundleDisplayName", manifest.DisplayName()},
		{"CFBundleExecutable", manifest.App.Name},
	}
	if hasIcon {
		entries = append(entries, plistEntry{"CFBundleIconFile", DefaultIconBaseName})
	}
	entries = append(entries,
		plistEntry{"CFBundleIdentifier", manifest.App.Identifier},
		plistEntry{"CFBundleInfoDictionaryVersion", InfoDictionaryVersion},
		plistEntry{"CFBundleName", manifest.App.Name},
		plistEntry{"CFBundlePackageType", BundlePackageType},
		plistEntry{"CFBundleShortVersionString", manifest.ShortVersion()},
		plistEntry{"CFBundleVersion", manifest.BundleVersion()},
	)
	if manifest.App.Category != "" {
		entries = append(entries, plistEntry{"LSApplicationCategoryType", manifest.App.Category})
	}
	minimum := manifest.App.MinimumSystem
	if minimum == "" {
		minimum = DefaultMinimumSystemVersion
	}
	entries = append(entries, plistEntry{"LSMinimumSystemVersion", minimum})
	if manifest.App.Background {
		entries = append(entries, plistEntry{"LSUIElement", true})
	}
	highRes := true
	if manifest.App.HighResolution != nil {
		highRes = *manifest.App.HighResolution
	}
	entries = append(entries, plistEntry{"NSHighResolutionCapable", highRes})

	var buf bytes.Buffer
	buf.WriteString(plistHeader)
	for _, entry := range entries {
		buf.WriteString("\t<key>")
		writeEscaped(&buf, entry.key)
		buf.WriteString("</key>\n")
		switch v := entry.value.(type) {
		case bool:
			if v {
				buf.WriteString("\t<true/>\n")
			} else {
				buf.WriteString("\t<false/>\n")
			}
		default:
			buf.WriteString("\t<string>")
			writeEscaped(&buf, fmt.Sprintf("%v", v))
			buf.WriteString("</string>\n")
		}
	}
	buf.WriteString(plistFooter)
	return buf.Bytes()
}

// writeEscaped writes s with XML entities applied. EscapeText only fails
// when the writer fails, and bytes.Buffer never does.
func writeEscaped(buf *bytes.Buffer, s string) {
	_ = xml.EscapeText(buf, []byte(s))
}

// LoadInfoPlist reads the top-level string and boolean values of a property
// list file
func LoadInfoPlist(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseInfoPlist(data)
}

// ParseInfoPlist extracts the top-level key/value pairs of a property list.
// Strings, integers, and booleans are returned as strings; nested
// containers are skipped rather than flattened.
func ParseInfoPlist(data []byte) (map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	values := map[string]string{}
	inDict := false
	currentKey := ""
	expectValue := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse property list: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if !inDict {
				if name == "dict" {
					inDict = true
				}
				continue
			}
			switch name {
			case "key":
				var key string
				if err := decoder.DecodeElement(&key, &t); err != nil {
					return nil, fmt.Errorf("failed to parse property list key: %w", err)
				}
				currentKey = key
				expectValue = true
			case "string", "integer", "real", "date":
				var value string
				if err := decoder.DecodeElement(&value, &t); err != nil {
					return nil, fmt.Errorf("failed to parse property list value: %w", err)
				}
				if expectValue {
					values[currentKey] = value
					expectValue = false
				}
			case "true", "false":
				if expectValue {
					values[currentKey] = name
					expectValue = false
				}
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to parse property list value: %w", err)
				}
			default:
				// Nested dict/array/data values are not flattened
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to parse property list: %w", err)
				}
				expectValue = false
			}
		case xml.EndElement:
			if inDict && t.Name.Local == "dict" {
				return values, nil
			}
		}
	}
	return values, nil
}
