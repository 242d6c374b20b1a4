package llm

import "testing"

func TestDecodePlan(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantOrigin   PlanOrigin
		wantAnalysis string
		wantFiles    []string
	}{
		{
			name:         "strict json",
			raw:          `{"analysis":"off-by-one in pager","proposed_changes":[{"file":"pager.go","change":"fix bound"}],"tests":"add TestPagerBounds"}`,
			wantOrigin:   PlanParsed,
			wantAnalysis: "off-by-one in pager",
			wantFiles:    []string{"pager.go"},
		},
		{
			name: "json wrapped in prose recovered",
			raw: "Sure, here is the plan:\n" +
				`{"analysis":"missing nil check","proposed_changes":[{"file":"handler.go","change":"guard"}],"tests":"TestNilBody"}` +
				"\nLet me know if you need more.",
			wantOrigin:   PlanRecovered,
			wantAnalysis: "missing nil check",
			wantFiles:    []string{"handler.go"},
		},
		{
			name:         "plain text falls back to analysis",
			raw:          "  The bug is a race in the cache layer.  ",
			wantOrigin:   PlanUnstructured,
			wantAnalysis: "The bug is a race in the cache layer.",
		},
		{
			name:         "broken json falls back to analysis",
			raw:          `{"analysis": "unterminated`,
			wantOrigin:   PlanUnstructured,
			wantAnalysis: `{"analysis": "unterminated`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := DecodePlan(tt.raw)
			if plan.Origin != tt.wantOrigin {
				t.Errorf("Origin = %v, want %v", plan.Origin, tt.wantOrigin)
			}
			if plan.Analysis != tt.wantAnalysis {
				t.Errorf("Analysis = %q, want %q", plan.Analysis, tt.wantAnalysis)
			}
			if len(plan.ProposedChanges) != len(tt.wantFiles) {
				t.Fatalf("ProposedChanges = %d entries, want %d", len(plan.ProposedChanges), len(tt.wantFiles))
			}
			for i, file := range tt.wantFiles {
				if plan.ProposedChanges[i].File != file {
					t.Errorf("ProposedChanges[%d].File = %q, want %q", i, plan.ProposedChanges[i].File, file)
				}
			}
			if plan.Raw != tt.raw {
				t.Errorf("Raw not preserved")
			}
		})
	}
}
