package service

import "regexp"

// Декларативные таблицы нормализации. Компилируются один раз при старте,
// применяются строго по порядку: синонимы → шум → замены → размеры.
// Порядок важен: раскрытие синонимов идёт ДО вырезания шума, иначе
// вырезанные токены ломают срабатывание синонимов.

type rule struct {
	re   *regexp.Regexp
	repl string
}

// \b в regexp — только ASCII, для кириллицы границы слова задаём явно.
// Захваченные разделители возвращаются через ${1}/${2} в замене.
func word(p string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^\p{L}\p{N}])(?:` + p + `)($|[^\p{L}\p{N}])`)
}

// Латиница→кириллица (визуальные двойники). Для артикулов — безусловно,
// для имён — только внутри смешанных токенов.
var lookalikes = map[rune]rune{
	'A': 'А', 'B': 'В', 'C': 'С', 'E': 'Е', 'H': 'Н', 'K': 'К', 'M': 'М', 'O': 'О', 'P': 'Р', 'T': 'Т', 'X': 'Х', 'Y': 'У',
	'a': 'а', 'c': 'с', 'e': 'е', 'o': 'о', 'p': 'р', 'x': 'х', 'y': 'у',
}

// Синонимы материалов, типов и резьбы — к полной форме. Длинные шаблоны
// первыми, чтобы "нар кан" не разобрало по частям.
var synonymRules = []rule{
	{word(`нар\.?\s*кан\.?`), "${1}наружная канализация${2}"},
	{word(`вн\.?\s*рез\p{L}*`), "${1}внутренняя резьба${2}"},
	{word(`нар\.?\s*рез\p{L}*`), "${1}наружная резьба${2}"},
	{word(`в\s*/?\s*р`), "${1}внутренняя резьба${2}"},
	{word(`н\s*/?\s*р`), "${1}наружная резьба${2}"},
	{word(`вр`), "${1}внутренняя резьба${2}"},
	{word(`нр`), "${1}наружная резьба${2}"},
	{word(`pe-?rt`), "${1}полиэтилен${2}"},
	{word(`ппр|ppr`), "${1}полипропилен${2}"},
	{word(`пп|pp`), "${1}полипропилен${2}"},
	{word(`пэ|pe`), "${1}полиэтилен${2}"},
	{word(`пвх|pvc`), "${1}поливинилхлорид${2}"},
	{word(`колено|угольник|угол|elbow`), "${1}отвод${2}"},
	{word(`tee`), "${1}тройник${2}"},
	{word(`coupling`), "${1}муфта${2}"},
	{word(`cap|plug`), "${1}заглушка${2}"},
	{word(`американка`), "${1}муфта разъемная${2}"},
	{word(`ред\.?`), "${1}переходник${2}"},
	{word(`малошум\p{L}*`), "${1}prestige${2}"},
	{word(`кан\.?`), "${1}канализационн${2}"},
}

// Шум: упаковка, толщина стенки в скобках, бренд, цвет. Метраж (50 м)
// НЕ вырезается — это разные товары.
var noiseRules = []rule{
	{regexp.MustCompile(`\(уп\.?\s*\d+\s*шт\.?\)`), " "},
	{regexp.MustCompile(`\(\d+\s*шт\.?\)`), " "},
	{regexp.MustCompile(`\(\d+[.,]\d+\)`), " "},
	{regexp.MustCompile(`\(двухраструбная\)`), " "},
	{regexp.MustCompile(`\(ремонтная\)`), " ремонтная "},
	{word(`соединительн\p{L}*`), "${1} ${2}"},
	{word(`эксц\p{L}*\.?`), "${1} ${2}"},
	{word(`jk|jakko|джакко`), "${1} ${2}"},
	{word(`серый|серая|белый|белая`), "${1} ${2}"},
}

// Поздние замены — после шума, до унификации размеров.
var replaceRules = []rule{
	{word(`компенсатор\s+канализационн\p{L}*`), "${1}патрубок компенсационный${2}"},
	{word(`переход`), "${1}переходник${2}"},
	{regexp.MustCompile(`\bpn\s*-?\s*(\d+)`), "pn$1"},
}

// Диаметр трубы (мм) → номинальный размер хомута (дюймы).
// Неизвестный размер проходит как есть (passthrough).
var pipeMMToInch = map[int]string{
	15: `3/8"`, 16: `3/8"`, 19: `3/8"`,
	20: `1/2"`, 25: `1/2"`,
	26: `3/4"`, 30: `3/4"`,
	32: `1"`, 36: `1"`,
	40: `1 1/4"`, 46: `1 1/4"`,
	50: `1 1/2"`, 51: `1 1/2"`,
	63: `2"`, 65: `2"`,
	75: `2 1/2"`, 78: `2 1/2"`,
	90: `3"`, 92: `3"`,
	110: `4"`, 115: `4"`,
	140: `5"`, 142: `5"`,
	160: `6"`, 166: `6"`,
}

var (
	// 0,5 → 0.5 (до чистки пунктуации)
	decComma = regexp.MustCompile(`(\d),(\d)`)
	// 110х2000, 110*50, 110 - 50 → 110×50 (итеративно, размеры бывают тройные).
	// Слэш не трогаем: 3/4" — дюймовая резьба, не размер.
	sizeSep = regexp.MustCompile(`(\d+)\s*[-xхXХ*×]\s*(\d)`)
	// хомут 110 → хомут в комплекте 4"
	clampMM = regexp.MustCompile(`(^|[^\p{L}\p{N}])хомут\s+(\d+)\b`)
	// артикул в начале наименования: "202-110-2000 Труба ..."
	leadingSku = regexp.MustCompile(`^\s*([0-9][0-9\-./]{3,})\s+\S`)
	// чистка пунктуации: оставляем буквы/цифры/пробел и × . " / %
	punct = regexp.MustCompile(`[^\p{L}\p{N}\s×."/%]+`)
	// разделители артикула
	skuSep = regexp.MustCompile(`[\s\-./_]+`)
)
