package jpegdoc

import (
	"errors"
	"testing"
)

func TestRangeRuleCheck(t *testing.T) {
	strict := func(p Profile) Mode { return Mode{Profile: p, Strictness: Strict} }
	lax := Mode{Profile: Baseline, Strictness: Lax}
	tests := []struct {
		rule RangeRule
		v    int
		m    Mode
		want error
	}{
		{precisionRule, 8, strict(Baseline), nil},
		{precisionRule, 12, strict(Baseline), ErrFormat},
		{precisionRule, 12, strict(ExtendedHuffman), nil},
		{precisionRule, 16, strict(LosslessHuffman), nil},
		{precisionRule, 12, lax, nil},
		{precisionRule, 256, lax, ErrRange},
		{precisionRule, -1, strict(Baseline), ErrRange},
		{precisionRule, 200, strict(ProfileUnset), nil},
		{samplingRule, 16, lax, ErrRange},
		{samplingRule, 0, strict(Baseline), ErrFormat},
		{alRule, 15, strict(LosslessArithmetic), nil},
		{alRule, 14, strict(ProgressiveHuffman), ErrFormat},
		{ssRule, 0, strict(DifferentialLosslessHuffman), ErrFormat},
		{linesRule, 0x10000, lax, ErrRange},
	}
	for _, tc := range tests {
		err := tc.rule.Check(tc.v, tc.m)
		if tc.want == nil {
			if err != nil {
				t.Errorf("%s=%d under %s: %v", tc.rule.Field, tc.v, tc.m, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Errorf("%s=%d under %s: got %v, want %v", tc.rule.Field, tc.v, tc.m, err, tc.want)
		}
	}
}

// Every value of every width is either accepted or rejected with exactly
// one of the two errors, and Accumulate agrees with Check.
func TestRangeRuleTotal(t *testing.T) {
	rules := []RangeRule{precisionRule, samplingRule, linesRule, frameTqRule, seRule}
	for _, rule := range rules {
		for p := ProfileUnset; p <= DifferentialLosslessArithmetic; p++ {
			for _, s := range []Strictness{Strict, Lax} {
				m := Mode{Profile: p, Strictness: s}
				for v := -1; v <= rule.Width.Max()+1; v++ {
					err := rule.Check(v, m)
					problems := rule.Accumulate(v, m, nil)
					if (err == nil) != (len(problems) == 0) {
						t.Fatalf("%s=%d under %s: Check %v, Accumulate %v", rule.Field, v, m, err, problems)
					}
					if err == nil {
						continue
					}
					if errors.Is(err, ErrRange) == errors.Is(err, ErrFormat) {
						t.Fatalf("%s=%d under %s: %v is neither or both", rule.Field, v, m, err)
					}
					if s == Lax && errors.Is(err, ErrFormat) {
						t.Fatalf("%s=%d: format error under lax", rule.Field, v)
					}
				}
			}
		}
	}
}
