package fileio

import (
	"regexp"
	"strconv"
	"strings"
)

// Подбор реальных имён колонок в выгрузках клиентов: шапки пишут как
// попало ("Наименование товара", "Номенклатура", составные заголовки 1С).

var headerKeyRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey — нижний регистр, ё→е, без служебных символов и
// множественных пробелов.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", " ", " ", " ", "ё", "е").Replace(s)
	s = headerKeyRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ResolveKey — ищет реальный ключ в записи по желаемому имени.
// Поддерживает альтернативы через "|" (например "Наименование|Номенклатура")
// и частичные совпадения для составных заголовков.
func ResolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// точное совпадение как есть
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	nWantAll := make([]string, 0, len(alts))
	for _, a := range alts {
		nWantAll = append(nWantAll, normHeaderKey(a))
	}

	bestKey := ""
	bestScore := 0
	for k := range rec {
		nk := normHeaderKey(k)
		for _, n := range nWantAll {
			if nk == n {
				return k
			}
		}
		// частичное: want ⊂ key или key ⊂ want
		// пример: "сальдо на конец периода количество" содержит "количество"
		score := 0
		for _, n := range nWantAll {
			if n != "" && (strings.Contains(nk, n) || strings.Contains(n, nk)) && len(n) > score {
				score = len(n)
			}
		}
		for _, stem := range []string{"колич", "наимен", "артикул"} {
			if strings.Contains(nWantAll[0], stem) && strings.Contains(nk, stem) {
				score += 100
			}
		}
		if score > bestScore {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

// LooksLikeHeader — строка похожа на шапку таблицы, пропускаем.
func LooksLikeHeader(rec map[string]string) bool {
	cnt := 0
	for _, v := range rec {
		s := strings.ToLower(strings.TrimSpace(v))
		if strings.Contains(s, "наимен") || strings.Contains(s, "артикул") ||
			strings.Contains(s, "колич") || strings.Contains(s, "итого") {
			cnt++
		}
	}
	return cnt >= 2
}

var keepNumsRe = regexp.MustCompile(`[^\d.\-]`)

// ParseNumberRU парсит "1 234,50", "(197,00)", "2 345,6" (NBSP/NNBSP) и т.п.
// Непарсибельное значение — 0.
func ParseNumberRU(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(" ", "", " ", "", " ", "", " ", "", "\t", "", ",", ".").Replace(s)
	s = keepNumsRe.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -v
	}
	return v
}
