package runner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formrunner/pkg/logging"
	"github.com/entrhq/formrunner/pkg/wizard"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, _ := logging.NewLogger("test")
	return logger
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(100, 50, 0, testLogger(t))
}

func TestResolverFill(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "birth_month",
		Selector:    "#dob-month",
		FieldType:   wizard.FieldText,
		Interaction: wizard.InteractFill,
	}

	require.NoError(t, resolver.Apply(page, field, "05"))
	require.Len(t, page.ops, 1)
	assert.Equal(t, fakeOp{Kind: "fill", Selector: "#dob-month", Value: "05"}, page.ops[0])
}

func TestResolverFillStringifiesNumbers(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "parent_income",
		Selector:    "#income",
		FieldType:   wizard.FieldNumber,
		Interaction: wizard.InteractFill,
	}

	// JSON numbers decode as float64; integral values must not grow ".0"
	require.NoError(t, resolver.Apply(page, field, float64(85000)))
	assert.Equal(t, "85000", page.ops[0].Value)
}

func TestResolverFillEnter(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "school",
		Selector:    "#school-search",
		FieldType:   wizard.FieldTypeahead,
		Interaction: wizard.InteractFillEnter,
	}

	require.NoError(t, resolver.Apply(page, field, "State University"))
	require.Len(t, page.ops, 2)
	assert.Equal(t, "fill", page.ops[0].Kind)
	assert.Equal(t, fakeOp{Kind: "press", Selector: "#school-search", Value: "Enter"}, page.ops[1])
}

func TestResolverJavaScriptClick(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "marital_status_single",
		Selector:    "#radio-single",
		FieldType:   wizard.FieldRadio,
		Interaction: wizard.InteractJavaScriptClick,
	}

	require.NoError(t, resolver.Apply(page, field, "clicked"))
	assert.Equal(t, "script_click", page.ops[0].Kind)
}

func TestResolverSelectStrategies(t *testing.T) {
	tests := []struct {
		name       string
		options    fakeSelect
		value      string
		wantKind   string
		wantChosen string
	}{
		{
			name:       "first strategy: value as given",
			options:    fakeSelect{values: []string{"bachelors"}},
			value:      "bachelors",
			wantKind:   "select_value",
			wantChosen: "bachelors",
		},
		{
			name: "second strategy: unicode apostrophe value",
			// Live option text uses the typographic apostrophe, caller
			// supplied ASCII
			options:    fakeSelect{values: []string{"Bachelor’s degree"}},
			value:      "Bachelor's degree",
			wantKind:   "select_value",
			wantChosen: "Bachelor’s degree",
		},
		{
			name:       "third strategy: label match",
			options:    fakeSelect{values: []string{"opt_42"}, labels: []string{"Married or remarried"}},
			value:      "Married or remarried",
			wantKind:   "select_label",
			wantChosen: "Married or remarried",
		},
		{
			name:       "fourth strategy: unicode label match",
			options:    fakeSelect{values: []string{"opt_7"}, labels: []string{"Master’s degree"}},
			value:      "Master's degree",
			wantKind:   "select_label",
			wantChosen: "Master’s degree",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := newFakePage()
			page.selects["#education"] = tt.options
			resolver := testResolver(t)

			field := &wizard.Field{
				FieldID:     "education_level",
				Selector:    "#education",
				FieldType:   wizard.FieldSelect,
				Interaction: wizard.InteractSelect,
			}

			require.NoError(t, resolver.Apply(page, field, tt.value))
			require.Len(t, page.ops, 1)
			assert.Equal(t, tt.wantKind, page.ops[0].Kind)
			assert.Equal(t, tt.wantChosen, page.ops[0].Value)
		})
	}
}

func TestResolverSelectExhaustsStrategies(t *testing.T) {
	page := newFakePage()
	page.selects["#education"] = fakeSelect{values: []string{"something-else"}}
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "education_level",
		Selector:    "#education",
		FieldType:   wizard.FieldSelect,
		Interaction: wizard.InteractSelect,
	}

	err := resolver.Apply(page, field, "Doctorate")

	var interactionErr *InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Equal(t, "education_level", interactionErr.FieldID)
	assert.Equal(t, "#education", interactionErr.Selector)
	assert.Empty(t, page.ops, "no strategy should have recorded a success")
}

func TestResolverGroupEmptyListIsNoOp(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:           "loans",
		Selector:          "#loans-table",
		FieldType:         wizard.FieldGroup,
		Interaction:       wizard.InteractClick,
		Required:          true,
		AddButtonSelector: "#add-loan",
		SubFields: []wizard.SubField{
			{FieldID: "loan_amount", Selector: "#loan-amount", FieldType: wizard.FieldNumber, Interaction: wizard.InteractFill},
		},
	}

	require.NoError(t, resolver.Apply(page, field, []any{}))
	assert.Empty(t, page.ops, "empty list means zero interactions")
}

func TestResolverGroupAddsEachItem(t *testing.T) {
	page := newFakePage()
	page.selects["#loan-type"] = fakeSelect{values: []string{"subsidized", "unsubsidized"}}
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:           "loans",
		Selector:          "#loans-table",
		FieldType:         wizard.FieldGroup,
		Interaction:       wizard.InteractClick,
		AddButtonSelector: "#add-loan",
		SubFields: []wizard.SubField{
			{FieldID: "loan_amount", Selector: "#loan-amount", FieldType: wizard.FieldNumber, Interaction: wizard.InteractFill},
			{FieldID: "loan_type", Selector: "#loan-type", FieldType: wizard.FieldSelect, Interaction: wizard.InteractSelect},
		},
	}

	items := []any{
		map[string]any{"loan_amount": float64(5500), "loan_type": "subsidized"},
		map[string]any{"loan_amount": float64(2000), "loan_type": "unsubsidized"},
	}

	require.NoError(t, resolver.Apply(page, field, items))

	// Per item: add click, two sub-field ops, save click
	wantKinds := []string{
		"click", "fill", "select_value", "click_text",
		"click", "fill", "select_value", "click_text",
	}
	require.Len(t, page.ops, len(wantKinds))
	for i, kind := range wantKinds {
		assert.Equal(t, kind, page.ops[i].Kind, "op %d", i)
	}

	saves := page.opsOfKind("click_text")
	require.Len(t, saves, 2)
	assert.Equal(t, "Save", saves[0].Selector)
}

func TestResolverGroupSkipsUnsupportedSubFieldKind(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:           "loans",
		Selector:          "#loans-table",
		FieldType:         wizard.FieldGroup,
		Interaction:       wizard.InteractClick,
		AddButtonSelector: "#add-loan",
		SubFields: []wizard.SubField{
			{FieldID: "loan_servicer", Selector: "#servicer-search", FieldType: wizard.FieldTypeahead, Interaction: wizard.InteractFillEnter},
			{FieldID: "loan_amount", Selector: "#loan-amount", FieldType: wizard.FieldNumber, Interaction: wizard.InteractFill},
		},
	}

	items := []any{
		map[string]any{"loan_servicer": "State Servicing Co", "loan_amount": float64(5500)},
	}

	// The unsupported sub-field is skipped; the rest of the item still
	// fills and saves
	require.NoError(t, resolver.Apply(page, field, items))

	fills := page.opsOfKind("fill")
	require.Len(t, fills, 1)
	assert.Equal(t, "#loan-amount", fills[0].Selector)
	assert.Empty(t, page.opsOfKind("press"))
	require.Len(t, page.opsOfKind("click_text"), 1, "item must still be saved")
}

func TestResolverGroupMissingAddButton(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "loans",
		Selector:    "#loans-table",
		FieldType:   wizard.FieldGroup,
		Interaction: wizard.InteractClick,
		SubFields: []wizard.SubField{
			{FieldID: "loan_amount", Selector: "#loan-amount", FieldType: wizard.FieldNumber, Interaction: wizard.InteractFill},
		},
	}

	err := resolver.Apply(page, field, []any{map[string]any{"loan_amount": float64(100)}})

	var interactionErr *InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Contains(t, err.Error(), "add_button_selector")
}

func TestResolverGroupSaveFailure(t *testing.T) {
	page := newFakePage()
	page.failClickText["Save"] = errors.New("element not visible")
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:           "loans",
		Selector:          "#loans-table",
		FieldType:         wizard.FieldGroup,
		Interaction:       wizard.InteractClick,
		AddButtonSelector: "#add-loan",
		SubFields: []wizard.SubField{
			{FieldID: "loan_amount", Selector: "#loan-amount", FieldType: wizard.FieldNumber, Interaction: wizard.InteractFill},
		},
	}

	err := resolver.Apply(page, field, []any{map[string]any{"loan_amount": float64(100)}})

	var interactionErr *InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Contains(t, err.Error(), "could not save item 1")
}

func TestResolverUnknownInteraction(t *testing.T) {
	page := newFakePage()
	resolver := testResolver(t)

	field := &wizard.Field{
		FieldID:     "mystery",
		Selector:    "#mystery",
		FieldType:   wizard.FieldText,
		Interaction: wizard.Interaction("hover"),
	}

	err := resolver.Apply(page, field, "x")

	var interactionErr *InteractionError
	require.ErrorAs(t, err, &interactionErr)
	assert.Contains(t, err.Error(), "unknown interaction kind")
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"text", "text"},
		{float64(85000), "85000"},
		{float64(12.5), "12.5"},
		{42, "42"},
		{true, "true"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, stringify(tt.in))
		})
	}
}
