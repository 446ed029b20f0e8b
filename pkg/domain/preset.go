package domain

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset はアニメーションの種類ごとのグリッド形状・ラベル・生成プロンプトを保持します。
// 起動時に確定し、以降は変更しません。
type Preset struct {
	Name    string   `yaml:"name"`
	Columns int      `yaml:"columns"`
	Rows    int      `yaml:"rows"`
	Labels  []string `yaml:"labels"`
	Prompt  string   `yaml:"prompt"`
}

// FrameCount はプリセットが定義するフレーム数 (Columns×Rows) を返します。
func (p Preset) FrameCount() int {
	return p.Columns * p.Rows
}

// Validate はグリッド形状とラベル数の整合性を検証します。
func (p Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewConfigError("preset name is empty")
	}
	if p.Columns <= 0 || p.Rows <= 0 {
		return &ShapeError{
			What:     fmt.Sprintf("preset %q grid", p.Name),
			Expected: "at least 1x1",
			Actual:   fmt.Sprintf("%dx%d", p.Columns, p.Rows),
		}
	}
	if len(p.Labels) != p.FrameCount() {
		return &ShapeError{
			What:     fmt.Sprintf("preset %q labels for %dx%d grid", p.Name, p.Columns, p.Rows),
			Expected: fmt.Sprintf("%d labels", p.FrameCount()),
			Actual:   fmt.Sprintf("%d labels", len(p.Labels)),
		}
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return NewConfigError("preset %q has an empty prompt", p.Name)
	}
	return nil
}

// WithLabels はラベルを差し替えたコピーを返します。元のプリセットは変更しません。
func (p Preset) WithLabels(labels []string) (Preset, error) {
	out := p
	out.Labels = append([]string(nil), labels...)
	if err := out.Validate(); err != nil {
		return Preset{}, err
	}
	return out, nil
}

// PresetRegistry は名前をキーとしたプリセットの検索用マップです。
type PresetRegistry map[string]Preset

// Get は名前でプリセットを取得します。未知の名前は設定エラーです。
func (r PresetRegistry) Get(name string) (Preset, error) {
	p, ok := r[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, NewConfigError("unknown animation type %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p.clone(), nil
}

// Names は登録済みのプリセット名をソートして返します。
func (r PresetRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Preset) clone() Preset {
	out := p
	out.Labels = append([]string(nil), p.Labels...)
	return out
}

// presetFile は --presets で指定される YAML ファイルの構造です。
type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets は組み込みプリセットのコピーを返します。
func DefaultPresets() PresetRegistry {
	reg := make(PresetRegistry, len(builtinPresets))
	for _, p := range builtinPresets {
		reg[p.Name] = p.clone()
	}
	return reg
}

// LoadPresets は組み込みプリセットに YAML ファイルの定義をマージして返します。
// path が空なら組み込みのみを返します。同名のプリセットは上書きされます。
func LoadPresets(path string) (PresetRegistry, error) {
	reg := DefaultPresets()
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("read presets %s", path), Err: err}
	}
	return mergePresets(reg, data, path)
}

// ParsePresets は YAML のバイト列を組み込みプリセットにマージして返します。
func ParsePresets(data []byte, source string) (PresetRegistry, error) {
	return mergePresets(DefaultPresets(), data, source)
}

func mergePresets(reg PresetRegistry, data []byte, source string) (PresetRegistry, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("parse presets %s", source), Err: err}
	}

	for _, p := range f.Presets {
		p.Name = strings.ToLower(strings.TrimSpace(p.Name))
		var err error
		if base, ok := reg[p.Name]; ok {
			p, err = overlay(base, p)
		} else {
			err = p.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("presets %s: %w", source, err)
		}
		reg[p.Name] = p
	}
	return reg, nil
}

// overlay は YAML で省略されたフィールドを既存プリセットの値で補完します。
// ラベルは WithLabels で差し替えるので、グリッドとの整合性もここで検証されるのだ。
func overlay(base, over Preset) (Preset, error) {
	merged := base
	if over.Columns != 0 {
		merged.Columns = over.Columns
	}
	if over.Rows != 0 {
		merged.Rows = over.Rows
	}
	if over.Prompt != "" {
		merged.Prompt = over.Prompt
	}
	labels := base.Labels
	if over.Labels != nil {
		labels = over.Labels
	}
	return merged.WithLabels(labels)
}
