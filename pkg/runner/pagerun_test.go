package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formrunner/pkg/wizard"
)

func testPageRunner(t *testing.T, page *fakePage) *PageRunner {
	t.Helper()
	logger := testLogger(t)
	recorder := NewRecorder(80, false, "", logger)
	resolver := NewResolver(100, 50, 0, logger)
	return NewPageRunner(resolver, recorder, 0, 0, 100, logger)
}

func testPage() *wizard.Page {
	return &wizard.Page{
		PageNumber: 1,
		PageTitle:  "Student Information",
		Fields: []wizard.Field{
			{FieldID: "birth_month", Selector: "#dob-month", FieldType: wizard.FieldText, Interaction: wizard.InteractFill, Required: true},
			{FieldID: "middle_name", Selector: "#middle-name", FieldType: wizard.FieldText, Interaction: wizard.InteractFill},
		},
		ContinueButton: wizard.ContinueButton{Selector: "#continue", SelectorType: wizard.SelectorCSS},
	}
}

func TestPageRunnerFillsAndAdvances(t *testing.T) {
	page := newFakePage()
	pr := testPageRunner(t, page)

	values := wizard.FieldValues{
		"#dob-month":   "05",
		"#middle-name": "Ann",
	}

	shot, err := pr.Run(page, testPage(), values)
	require.NoError(t, err)
	assert.NotEmpty(t, shot, "audit screenshot expected")

	fills := page.opsOfKind("fill")
	require.Len(t, fills, 2)
	assert.Equal(t, "#dob-month", fills[0].Selector)
	assert.Equal(t, "#middle-name", fills[1].Selector)

	clicks := page.opsOfKind("click")
	require.Len(t, clicks, 1)
	assert.Equal(t, "#continue", clicks[0].Selector)

	idles := page.opsOfKind("wait_network_idle")
	assert.Len(t, idles, 1)
}

func TestPageRunnerMissingRequiredField(t *testing.T) {
	page := newFakePage()
	pr := testPageRunner(t, page)

	// Only the optional field is supplied
	values := wizard.FieldValues{"#middle-name": "Ann"}

	_, err := pr.Run(page, testPage(), values)

	var missingErr *MissingRequiredFieldError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "birth_month", missingErr.FieldID)
	assert.Equal(t, "#dob-month", missingErr.Selector)
	assert.Equal(t, 1, missingErr.Page)
	assert.Empty(t, page.opsOfKind("click"), "continue must not be clicked")
}

func TestPageRunnerTreatsNullValueAsMissing(t *testing.T) {
	page := newFakePage()
	pr := testPageRunner(t, page)

	// An explicit JSON null for the required field, a real value for the
	// optional one
	values := wizard.FieldValues{
		"#dob-month":   nil,
		"#middle-name": "Ann",
	}

	_, err := pr.Run(page, testPage(), values)

	var missingErr *MissingRequiredFieldError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "birth_month", missingErr.FieldID)
	assert.Empty(t, page.opsOfKind("fill"), "null must never be rendered into the field")
}

func TestPageRunnerSkipsOptionalNullValue(t *testing.T) {
	page := newFakePage()
	pr := testPageRunner(t, page)

	values := wizard.FieldValues{
		"#dob-month":   "05",
		"#middle-name": nil,
	}

	_, err := pr.Run(page, testPage(), values)
	require.NoError(t, err)

	fills := page.opsOfKind("fill")
	require.Len(t, fills, 1)
	assert.Equal(t, "#dob-month", fills[0].Selector)
}

func TestPageRunnerSkipsOptionalWithoutValue(t *testing.T) {
	page := newFakePage()
	pr := testPageRunner(t, page)

	values := wizard.FieldValues{"#dob-month": "05"}

	_, err := pr.Run(page, testPage(), values)
	require.NoError(t, err)
	assert.Len(t, page.opsOfKind("fill"), 1)
}

func TestPageRunnerContinueBySelectorType(t *testing.T) {
	tests := []struct {
		name     string
		button   wizard.ContinueButton
		wantKind string
		wantSel  string
	}{
		{
			name:     "text selector clicks by exact text",
			button:   wizard.ContinueButton{Selector: "Continue", SelectorType: wizard.SelectorText},
			wantKind: "click_text",
			wantSel:  "Continue",
		},
		{
			name:     "id selector gains hash prefix",
			button:   wizard.ContinueButton{Selector: "continue-btn", SelectorType: wizard.SelectorID},
			wantKind: "click",
			wantSel:  "#continue-btn",
		},
		{
			name:     "id selector keeps existing hash",
			button:   wizard.ContinueButton{Selector: "#continue-btn", SelectorType: wizard.SelectorID},
			wantKind: "click",
			wantSel:  "#continue-btn",
		},
		{
			name:     "css selector used raw",
			button:   wizard.ContinueButton{Selector: "button.next", SelectorType: wizard.SelectorCSS},
			wantKind: "click",
			wantSel:  "button.next",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage()
			pr := testPageRunner(t, page)

			structure := &wizard.Page{
				PageNumber:     1,
				PageTitle:      "Step",
				ContinueButton: tt.button,
			}

			_, err := pr.Run(page, structure, wizard.FieldValues{})
			require.NoError(t, err)

			matched := page.opsOfKind(tt.wantKind)
			require.Len(t, matched, 1)
			assert.Equal(t, tt.wantSel, matched[0].Selector)
		})
	}
}

func TestPageRunnerContinueFailure(t *testing.T) {
	page := newFakePage()
	page.failClick["#continue"] = assert.AnError
	pr := testPageRunner(t, page)

	shot, err := pr.Run(page, testPage(), wizard.FieldValues{"#dob-month": "05", "#middle-name": "Ann"})

	var interactionErr *InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Equal(t, "continue_button", interactionErr.FieldID)
	assert.NotEmpty(t, shot, "the audit screenshot precedes the continue click")
}
