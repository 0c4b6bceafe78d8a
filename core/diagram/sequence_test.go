package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceSimpleMessage(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor actor-box" x="100" y="20">Client</text>
<text class="actor actor-box" x="300" y="20">Server</text>
<line class="messageLine0" x1="100" y1="100" x2="300" y2="100"></line>
<text class="messageText" x="200" y="90">Ping</text>
<text class="actor actor-box" x="100" y="400">Client</text>
<text class="actor actor-box" x="300" y="400">Server</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Equal(t, "```mermaid\nsequenceDiagram\n"+
		"  participant Client\n"+
		"  participant Server\n\n"+
		"  Client->>Server: Ping\n```", out)
}

func TestSequenceAltBlockWithDivider(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor actor-box" x="100" y="20">Client</text>
<text class="actor actor-box" x="300" y="20">Server</text>
<line class="loopLine" x1="50" y1="80" x2="350" y2="80"></line>
<line class="loopLine" x1="350" y1="80" x2="350" y2="300"></line>
<line class="loopLine" x1="350" y1="300" x2="50" y2="300"></line>
<line class="loopLine" x1="50" y1="300" x2="50" y2="80"></line>
<text class="labelText" x="75" y="93">alt</text>
<text class="loopText" x="200" y="93">[ok]</text>
<line class="loopLine" x1="50" y1="190" x2="350" y2="190" style="stroke-dasharray: 3, 3"></line>
<text class="loopText" x="200" y="205">[fail]</text>
<line class="messageLine0" x1="100" y1="120" x2="300" y2="120"></line>
<text class="messageText" x="200" y="110">Ping</text>
<line class="messageLine1" x1="300" y1="230" x2="100" y2="230"></line>
<text class="messageText" x="200" y="220">Pong</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Equal(t, "```mermaid\nsequenceDiagram\n"+
		"  participant Client\n"+
		"  participant Server\n\n"+
		"  alt [ok]\n"+
		"    Client->>Server: Ping\n"+
		"  else [fail]\n"+
		"    Server-->>Client: Pong\n"+
		"  end\n```", out)
	assert.NotContains(t, out, "loop alt")
}

func TestSequenceUnknownBlockLabelIsLoopCondition(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor actor-box" x="100" y="20">A</text>
<line class="loopLine" x1="50" y1="80" x2="150" y2="80"></line>
<line class="loopLine" x1="150" y1="80" x2="150" y2="200"></line>
<line class="loopLine" x1="150" y1="200" x2="50" y2="200"></line>
<line class="loopLine" x1="50" y1="200" x2="50" y2="80"></line>
<text class="loopText" x="100" y="93">[every minute]</text>
<path class="messageLine0" d="M 100 120 C 140 120, 140 140, 100 140"></path>
<text class="messageText" x="120" y="115">tick</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Contains(t, out, "  loop [every minute]\n    A->>A: tick\n  end")
}

func TestSequenceMultiLineParticipantAndAliases(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor-box" x="100">Client 1</text>
<text class="actor-box" x="500" y="50">ticketObject</text>
<text class="actor-box" x="500" y="65">key: seat-1</text>
<text class="actor-box" x="500" y="80">state: AVAILABLE</text>
<line class="messageLine0" x1="100" y1="100" x2="500" y2="100"></line>
<text class="messageText" x="300" y="90">Request</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Contains(t, out, `participant p1 as "Client 1"`)
	assert.Contains(t, out, `participant p2 as "ticketObject<br/>key: seat-1<br/>state: AVAILABLE"`)
	assert.Contains(t, out, "p1->>p2: Request")
}

func TestSequenceDuplicateParticipantIsNotMerged(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor-box" x="100" y="50">Client</text>
<text class="actor-box" x="100" y="500">Client</text>
<text class="actor-box" x="300" y="50">Server</text>
<line class="messageLine0" x1="100" y1="100" x2="300" y2="100"></line>
<text class="messageText" x="200" y="90">Request</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(out, "participant Client"))
	assert.NotContains(t, out, "Client<br/>Client")
}

func TestSequenceMultiTextMessages(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor-box" x="100">Client</text>
<text class="actor-box" x="300">Server</text>
<line class="messageLine0" x1="100" y1="100" x2="300" y2="100"></line>
<text class="messageText" x="200" y="90">POST /api</text>
<text class="messageText" x="200" y="110">{data: 1}</text>
<line class="messageLine1" x1="300" y1="200" x2="100" y2="200"></line>
<text class="messageText" x="200" y="190">200 OK</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Contains(t, out, "  Client->>Server: POST /api<br/>{data: 1}\n")
	assert.Contains(t, out, "  Server-->>Client: 200 OK")
}

func TestSequenceNoteOverTwoParticipants(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor-box" x="100">Client</text>
<text class="actor-box" x="300">Server</text>
<g><rect class="note" x="80" y="140" width="240" height="40"></rect>
  <text class="noteText" x="200" y="155">first</text>
  <text class="noteText" x="200" y="170">second</text></g>
<g><rect class="note" x="280" y="200" width="40" height="20"></rect>
  <text class="noteText" x="300" y="210">solo</text></g>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Contains(t, out, "  note over Client,Server: first<br/>second\n")
	assert.Contains(t, out, "  note over Server: solo")
}

func TestSequenceEmptyIsNotOK(t *testing.T) {
	_, ok := SequenceDiagram(parseSVG(t, `<svg aria-roledescription="sequence"><g></g></svg>`), testConfig(t))
	assert.False(t, ok)
}

func TestPairMessageTextsByCost(t *testing.T) {
	lines := []seqLine{
		{x1: 100, y1: 100, x2: 500, y2: 100},
		{x1: 300, y1: 160, x2: 500, y2: 160},
		{x1: 500, y1: 180, x2: 530, y2: 200, self: true},
	}
	texts := []seqText{
		{text: "a1", x: 300, y: 85},
		{text: "a2", x: 300, y: 95},
		{text: "b1", x: 400, y: 110},
		{text: "b2", x: 400, y: 125},
		{text: "c", x: 520, y: 190},
	}
	assert.Equal(t, []string{"a1<br/>a2", "b1<br/>b2", "c"}, pairMessageTexts(texts, lines))
}

func TestSequenceAliasSkipsParticipantNames(t *testing.T) {
	svg := parseSVG(t, `<svg aria-roledescription="sequence">
<text class="actor-box" x="100" y="20">Web App</text>
<text class="actor-box" x="300" y="20">p1</text>
<line class="messageLine0" x1="100" y1="100" x2="300" y2="100"></line>
<text class="messageText" x="200" y="90">Ping</text>
</svg>`)

	out, ok := SequenceDiagram(svg, testConfig(t))
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(out, "participant p1"))
	assert.Contains(t, out, `participant p2 as "Web App"`)
	assert.Contains(t, out, "p2->>p1: Ping")
	assert.NotContains(t, out, "p1->>p1")
}
