package domain

// DefaultVoteOptions is the option set a brand-new room starts with.
var DefaultVoteOptions = []string{
	"1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "Abstain", "?",
}

// Pre-defined voting option sets for common pointing scales.
var (
	PresetFibonacci = []string{
		"1", "2", "3", "5", "8", "13", "21", "Abstain", "?",
	}
	PresetLinearOneToFive = []string{
		"1", "2", "3", "4", "5", "Abstain", "?",
	}
	PresetLinearOneToTen = []string{
		"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "Abstain", "?",
	}
	PresetTShirtSizes = []string{
		"XS", "S", "M", "L", "XL", "XXL", "Abstain", "?",
	}
)

type VotingPreset struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

func VotingPresets() []VotingPreset {
	return []VotingPreset{
		{Name: "Fibonacci (1-21)", Options: PresetFibonacci},
		{Name: "Linear (1-5)", Options: PresetLinearOneToFive},
		{Name: "Linear (1-10)", Options: PresetLinearOneToTen},
		{Name: "T-Shirt Sizes", Options: PresetTShirtSizes},
	}
}
