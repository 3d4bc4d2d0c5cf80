package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Poll struct {
	Index   uint64         `json:"index"`
	Creator common.Address `json:"creator"`
	Title   string         `json:"title"`
	Options []Option       `json:"options"`
	IsOpen  bool           `json:"is_open"`
}

// Option.Index is the option's position in Poll.Options.
type Option struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Asset       string `json:"asset"`
}

var knownAssets = []struct {
	match string
	asset string
}{
	{"cool llama", "llama.json"},
	{"inflatable tube", "inflatable-tube-man.json"},
	{"triangle man", "triangle-man.json"},
}

// ResolveAsset picks the animation for an option by its title.
func ResolveAsset(title string) (string, error) {
	lowered := strings.ToLower(title)
	for _, known := range knownAssets {
		if strings.Contains(lowered, known.match) {
			return known.asset, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedOption, title)
}

func (p *Poll) HasOption(optionIndex int) bool {
	return optionIndex >= 0 && optionIndex < len(p.Options)
}

func (p *Poll) OptionIndices() []int {
	indices := make([]int, len(p.Options))
	for i, opt := range p.Options {
		indices[i] = opt.Index
	}
	return indices
}
