package service

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeSku — канонический токен артикула: нижний регистр, без
// разделителей, без ведущих нулей. Тотальная функция, не падает.
func NormalizeSku(s string) string {
	if s == "" {
		return ""
	}
	out := skuSep.ReplaceAllString(strings.TrimSpace(s), "")
	out = unifyLookalikes(out)
	out = strings.ToLower(out)
	out = strings.TrimLeft(out, "0")
	if out == "" {
		return "0"
	}
	return out
}

// === NormalizeName — главный конвейер ===
// Два написания, которые человек считает одним товаром, обязаны давать
// одинаковую строку: на этом держатся уровни точного и нечеткого поиска.
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}
	out := norm.NFKC.String(s)
	out = strings.ToLower(out)
	out = strings.NewReplacer("ё", "е", " ", " ", " ", " ").Replace(out)

	// 1) Смешанные токены: латинские двойники → кириллица ("труbа" → "труба")
	out = unifyMixedTokens(out)

	// 2-4) Синонимы → шум → поздние замены. До неподвижной точки: соседние
	// токены делят разделитель, за один проход второй из них не матчится.
	for prev := ""; out != prev; {
		prev = out
		for _, r := range synonymRules {
			out = r.re.ReplaceAllString(out, r.repl)
		}
		for _, r := range noiseRules {
			out = r.re.ReplaceAllString(out, r.repl)
		}
		for _, r := range replaceRules {
			out = r.re.ReplaceAllString(out, r.repl)
		}
	}

	// 5) Хомут 110 → хомут в комплекте 4" (неизвестный размер — как есть)
	out = clampMM.ReplaceAllStringFunc(out, func(m string) string {
		g := clampMM.FindStringSubmatch(m)
		mm, err := strconv.Atoi(g[2])
		if err != nil {
			return m
		}
		if inch, ok := pipeMMToInch[mm]; ok {
			return g[1] + "хомут в комплекте " + inch
		}
		return m
	})

	// 6) Десятичные: 3,2 → 3.2 (до чистки пунктуации)
	out = decComma.ReplaceAllString(out, "$1.$2")

	// 7) Размеры: 110-2000 / 110х50 / 110*50 → 110×2000 / 110×50
	out = unifySizeSeparators(out)

	// 8) Пунктуация → пробелы (сохраняем × . " / %), схлопывание пробелов
	out = punct.ReplaceAllString(out, " ")
	return collapseSpaces(out)
}

// ExtractSkuFromText — артикул из начала наименования, когда колонка
// артикула пуста ("202-110-2000 Труба ПП ...").
func ExtractSkuFromText(name string) string {
	m := leadingSku.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// ===== helpers =====

// Безусловная замена двойников (для артикулов).
func unifyLookalikes(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		if rr, ok := lookalikes[r]; ok {
			r = rr
		}
		b = append(b, r)
	}
	return string(b)
}

// Двойники внутри смешанных токенов: трогаем токен, только если в нём
// уже есть кириллица. Чисто латинские ("prestige", "pn25") не портим.
func unifyMixedTokens(s string) string {
	fields := strings.Fields(s)
	for i, tok := range fields {
		hasCyr := false
		hasLat := false
		for _, r := range tok {
			if r >= 'а' && r <= 'я' || r == 'е' {
				hasCyr = true
			}
			if _, ok := lookalikes[r]; ok && r < 0x80 {
				hasLat = true
			}
		}
		if hasCyr && hasLat {
			fields[i] = unifyLookalikes(tok)
		}
	}
	return strings.Join(fields, " ")
}

// Итеративная унификация разделителей размеров (покрывает 40-25-40).
func unifySizeSeparators(s string) string {
	prev := ""
	out := s
	for out != prev {
		prev = out
		out = sizeSep.ReplaceAllString(out, "$1×$2")
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
