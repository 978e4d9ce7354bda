// Package digest はメールテンプレートのプレースホルダー置換とダイジェスト本文の組み立てを行う。
package digest

import (
	"strconv"
	"strings"
)

// テンプレートで使用できるプレースホルダーのキー。
const (
	KeyDate         = "DATE"
	KeyCompanyName  = "COMPANY_NAME"
	KeyTicker       = "TICKER"
	KeyTitle        = "TITLE"
	KeyURL          = "URL"
	KeyPublishDate  = "PUBLISH_DATE"
	KeyCompanyCount = "COMPANY_COUNT"
)

// Fields はプレースホルダーのキー（波括弧なし）から置換値への対応。
type Fields map[string]string

// Render はテンプレート中の {KEY} を fields の値で置き換える。
// 置換は1パスで行うため、値の中に別のプレースホルダーが含まれていても再置換されない。
// fields にないプレースホルダーはそのまま残る。値はエスケープしない。
func Render(template string, fields Fields) string {
	if len(fields) == 0 {
		return template
	}
	pairs := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// SubjectFields は件名用のフィールドを返す。
func SubjectFields(day string, companyCount int) Fields {
	return Fields{
		KeyDate:         day,
		KeyCompanyCount: strconv.Itoa(companyCount),
	}
}
