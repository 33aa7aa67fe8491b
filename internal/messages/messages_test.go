package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFor(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"", language.English},
		{"en", language.English},
		{"en-US", language.English},
		{"ja", language.Japanese},
		{"ja-JP", language.Japanese},
		{"fr", language.English},
		{"not a locale!", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.locale).Language())
		})
	}
}

func TestSprintf(t *testing.T) {
	assert.Equal(t, "Cannot start compiling. HSP directory: C:/hsp3", For("en").Sprintf(CompilerMissing, "C:/hsp3"))
	assert.Equal(t, "コンパイルを開始できません。指定されたHSPのディレクトリ: C:/hsp3", For("ja").Sprintf(CompilerMissing, "C:/hsp3"))
	assert.Equal(t, "グローバル", For("ja").Sprintf(GlobalsScope))
	assert.Equal(t, "The program exited with code 3.", For("de").Sprintf(DebuggeeExited, 3))
}

func TestEveryKeyHasJapanese(t *testing.T) {
	for key, ja := range japanese {
		assert.NotEmpty(t, ja, key)
	}
}
