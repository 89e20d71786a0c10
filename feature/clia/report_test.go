package clia

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Document(t *testing.T) {
	svc, _ := newTestService(t, testSettings(), nil, nil)
	master := "CLIA,STATE,CITY\nA,AK,Juneau\nB,AL,Mobile\n"
	capture := "CLIA,STATE,CITY\nB,AL,Mobile\nC,AK,Anchorage\nD,AL,Huntsville\n"
	out, err := svc.RunUploads(context.Background(), Request{DryRun: true},
		Upload{Name: "master.csv", Body: strings.NewReader(master)},
		[]Upload{{Name: "data1.csv", Body: strings.NewReader(capture)}})
	require.NoError(t, err)

	doc := out.Document(20, false, nil)
	assert.Len(t, doc.Sections, 4)

	state, err := ParseFilter("STATE=AL")
	require.NoError(t, err)
	doc = out.Document(20, false, []Filter{state})
	require.Len(t, doc.Sections, 5)
	assert.Equal(t, 2, doc.Sections[4].Total)

	doc = out.Document(20, true, nil)
	require.Len(t, doc.Sections, 9)
	assert.Equal(t, TitleBaseline, doc.Sections[0].Title)
	assert.Equal(t, 2, doc.Sections[0].Total)
	assert.Equal(t, TitleCombined, doc.Sections[1].Title)
	assert.Equal(t, 3, doc.Sections[1].Total)

	views := map[string]int{}
	for _, s := range doc.Sections[6:] {
		views[s.Title] = s.Total
	}
	assert.Equal(t, map[string]int{
		"Labs in Alabama only":           2,
		"Labs with License 'Compliance'": 0,
		"Labs in City 'Anchorage'":       1,
	}, views)
}
