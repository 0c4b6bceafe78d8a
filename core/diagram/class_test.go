package diagram

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classBox(name string, index int, x, y float64, stereotype string, members, methods []string) string {
	label := func(text string) string {
		return `<g class="label"><foreignObject width="80" height="20"><div><span class="nodeLabel"><p>` + text + `</p></span></div></foreignObject></g>`
	}
	var st, mem, met string
	if stereotype != "" {
		st = label(stereotype)
	}
	for _, m := range members {
		mem += label(m)
	}
	for _, m := range methods {
		met += label(m)
	}
	return fmt.Sprintf(`<g class="node default" id="classId-%s-%d" transform="translate(%g,%g)">
<g class="basic label-container"><path d="M-50 -40 L50 -40 L50 40 L-50 40"></path></g>
<g class="annotation-group text">%s</g>
<g class="members-group text">%s</g>
<g class="methods-group text">%s</g>
</g>`, name, index, x, y, st, mem, met)
}

func TestClassDiagramClassesAndRelation(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="classDiagram">`+
		classBox("Animal", 0, 100, 100, "&lt;&lt;interface&gt;&gt;", []string{"+String name"}, []string{"+speak()"})+
		classBox("Dog", 1, 100, 300, "", nil, []string{"+bark()"})+
		`<path class="relation" id="id_Animal_Dog_1" marker-start="url(#mermaid-1_class-extensionStart)" d="M100,140 L100,260"></path>
<g class="edgeLabels"><g class="edgeLabel"><g class="label"><foreignObject width="30" height="20"><div><span class="edgeLabel"><p>is a</p></span></div></foreignObject></g></g></g>
</svg>`)

	out, ok := ClassDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Equal(t, "```mermaid\nclassDiagram\n"+
		"    class Animal {\n"+
		"        <<interface>>\n"+
		"        +String name\n"+
		"        +speak()\n"+
		"    }\n"+
		"    class Dog {\n"+
		"        +bark()\n"+
		"    }\n"+
		"    Animal <|-- Dog : is a\n```", out)
}

func TestClassDiagramNotes(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="classDiagram">`+
		classBox("Animal", 0, 100, 100, "", nil, nil)+
		`<g><rect class="note" x="200" y="60" width="60" height="30"></rect><text class="noteText" x="210" y="75">Attached</text></g>
<g><rect class="note" x="900" y="900" width="60" height="30"></rect><text class="noteText" x="910" y="915">Floating</text></g>
<g class="node undefined" id="note1" transform="translate(200,60)"><path fill="#fff5ad" d="M0,0 L10,10"></path>
  <foreignObject width="60" height="20"><div><span class="nodeLabel"><p>Attached</p></span></div></foreignObject></g>
<path class="relation edge-pattern-dotted" id="edgeNote1" d="M210,70 L150,100"></path>
</svg>`)

	out, ok := ClassDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Contains(t, out, "classDiagram\n    note for Animal \"Attached\"\n    note \"Floating\"\n    class Animal {\n    }")
}

func TestClassDiagramEmptyIsNotOK(t *testing.T) {
	_, ok := ClassDiagram(parseSVG(t, `<svg aria-roledescription="classDiagram"><g class="root"></g></svg>`), testConfig(t))
	assert.False(t, ok)
}

func TestSplitRelationID(t *testing.T) {
	classes := map[string]*classInfo{"Order": {}, "Line_Item": {}}
	from, to, ok := splitRelationID("id_Order_Line_Item_3", classes)
	require.True(t, ok)
	assert.Equal(t, "Order", from)
	assert.Equal(t, "Line_Item", to)

	_, _, ok = splitRelationID("id_Order_Missing_1", classes)
	assert.False(t, ok)
	_, _, ok = splitRelationID("Order_Line_Item_3", classes)
	assert.False(t, ok)
}

func TestClassRelation(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		dashed     bool
		want       string
	}{
		{"inheritance start", "url(#x_class-extensionStart)", "", false, "A <|-- B"},
		{"realization start", "url(#x_class-extensionStart)", "", true, "A <|.. B"},
		{"inheritance end", "", "url(#x_class-extensionEnd)", false, "B <|-- A"},
		{"lollipop start", "url(#x_class-lollipopStart)", "", false, "B ..|> A"},
		{"interface end dashed", "", "url(#x_class-interfaceEnd)", true, "A ..|> B"},
		{"composition start", "url(#x_class-compositionStart)", "", false, "A *-- B"},
		{"composition end", "", "url(#x_class-compositionEnd)", false, "B *-- A"},
		{"filled diamond end", "", "url(#x_class-diamondEnd-filled)", false, "B *-- A"},
		{"aggregation start", "url(#x_class-aggregationStart)", "", false, "B --o A"},
		{"aggregation end", "", "url(#x_class-aggregationEnd)", false, "A o-- B"},
		{"dependency start dashed", "url(#x_class-dependencyStart)", "", true, "B <.. A"},
		{"dependency end", "", "url(#x_class-dependencyEnd)", false, "A --> B"},
		{"dependency end dashed", "", "url(#x_class-dependencyEnd)", true, "A ..> B"},
		{"arrow start", "url(#x_class-arrowStart)", "", false, "B <-- A"},
		{"open end", "", "url(#x_class-openEnd)", true, "A ..> B"},
		{"plain link", "", "", false, "A -- B"},
		{"plain dashed link", "", "", true, "A .. B"},
		{"unknown marker", "url(#x_class-weirdStart)", "", false, "A -- B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classRelation("A", "B", tt.start, tt.end, tt.dashed))
		})
	}
}
