package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afdb-links/pkg/models"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestSection_BasicMatch(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Project Objectives</h2>
		<p>Improve water access.</p>
		<p>Reduce losses.</p>
		<h2>Other</h2>
		<p>Unrelated.</p>
	</body></html>`)

	content, ok := Section(d, []string{"Project Objectives"})
	require.True(t, ok)
	assert.Equal(t, "Improve water access. Reduce losses.", content.Text)
	assert.Contains(t, content.HTML, "<p>Improve water access.</p>")
	assert.NotContains(t, content.HTML, "Unrelated")
}

func TestSection_MatchIsNormalizedAndCaseInsensitive(t *testing.T) {
	d := doc(t, `<html><body>
		<h3>  project   OBJECTIVES </h3>
		<p>Body text.</p>
	</body></html>`)

	content, ok := Section(d, []string{"Project Objectives"})
	require.True(t, ok)
	assert.Equal(t, "Body text.", content.Text)
}

func TestSection_EqualityNotSubstring(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Project Objectives and Scope</h2>
		<p>Should not match.</p>
	</body></html>`)

	_, ok := Section(d, []string{"Project Objectives"})
	assert.False(t, ok)
}

func TestSection_FirstMatchWins(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Beneficiaries</h2>
		<p>First occurrence.</p>
		<h2>Beneficiaries</h2>
		<p>Second occurrence.</p>
	</body></html>`)

	content, ok := Section(d, []string{"Beneficiaries"})
	require.True(t, ok)
	assert.Equal(t, "First occurrence.", content.Text)
}

func TestSection_StopsAtSameLevelHeading(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Objectives</h2>
		<p>In section.</p>
		<h3>Sub point</h3>
		<p>Still in section.</p>
		<h2>Next Section</h2>
		<p>Out of section.</p>
	</body></html>`)

	content, ok := Section(d, []string{"Objectives"})
	require.True(t, ok)
	// An h3 below the matched h2 does not end the section, the next h2 does
	assert.Equal(t, "In section. Still in section.", content.Text)
}

func TestSection_H3StopsAtH2(t *testing.T) {
	d := doc(t, `<html><body>
		<h3>Beneficiaries</h3>
		<p>Rural households.</p>
		<h2>Big Heading</h2>
		<p>Not part of it.</p>
	</body></html>`)

	content, ok := Section(d, []string{"Beneficiaries"})
	require.True(t, ok)
	assert.Equal(t, "Rural households.", content.Text)
}

func TestSection_CollectsListsAndBlockquotes(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Objectives</h2>
		<ul><li>First goal</li><li>Second goal</li></ul>
		<blockquote>A quote.</blockquote>
		<span>Inline text skipped</span>
	</body></html>`)

	content, ok := Section(d, []string{"Objectives"})
	require.True(t, ok)
	assert.Contains(t, content.Text, "First goal")
	assert.Contains(t, content.Text, "A quote.")
	assert.NotContains(t, content.Text, "Inline text skipped")
}

func TestSection_NoMatch(t *testing.T) {
	d := doc(t, `<html><body><h2>Financing</h2><p>Numbers.</p></body></html>`)

	_, ok := Section(d, []string{"Objectives", "Project Objectives"})
	assert.False(t, ok)
}

func TestSection_EmptyBody(t *testing.T) {
	d := doc(t, `<html><body><h2>Objectives</h2><h2>Next</h2><p>x</p></body></html>`)

	content, ok := Section(d, []string{"Objectives"})
	require.True(t, ok)
	assert.Empty(t, content.Text)
}

func TestExtractSection_FrenchFallback(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Objectifs du projet</h2>
		<p>Améliorer l'accès à l'eau.</p>
	</body></html>`)

	res := ExtractSection(d, SectionObjectives)
	assert.Equal(t, models.LocaleFR, res.Locale)
	assert.Equal(t, "Améliorer l'accès à l'eau.", res.Text)
}

func TestExtractSection_EnglishPreferredOverFrench(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Objectifs du projet</h2>
		<p>Texte français.</p>
		<h2>Project Objectives</h2>
		<p>English text.</p>
	</body></html>`)

	res := ExtractSection(d, SectionObjectives)
	assert.Equal(t, models.LocaleEN, res.Locale)
	assert.Equal(t, "English text.", res.Text)
}

func TestExtractSection_NoMatch(t *testing.T) {
	d := doc(t, `<html><body><h2>Completely Different</h2></body></html>`)

	res := ExtractSection(d, SectionBeneficiaries)
	assert.Equal(t, models.LocaleNone, res.Locale)
	assert.Empty(t, res.Text)
}

func TestSection_Idempotent(t *testing.T) {
	d := doc(t, `<html><body>
		<h2>Beneficiaries</h2>
		<p>Smallholder farmers.</p>
	</body></html>`)

	first, ok1 := Section(d, []string{"Beneficiaries"})
	second, ok2 := Section(d, []string{"Beneficiaries"})
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}
