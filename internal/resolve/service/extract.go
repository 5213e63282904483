package service

import (
	"regexp"
	"strconv"
	"strings"

	"match-service/internal/resolve/model"
)

// Фасеты — структурные признаки, извлечённые из текста. Каждый экстрактор —
// чистая функция с закрытым перечислением значений; пустое значение означает
// "не определено, по этому фасету не фильтровать". Экстракторы не падают
// на любом входе.

type ProductType string

const (
	TypePipe     ProductType = "pipe"
	TypeElbow    ProductType = "elbow"
	TypeTee      ProductType = "tee"
	TypeCoupling ProductType = "coupling"
	TypeCap      ProductType = "cap"
	TypeReducer  ProductType = "reducer"
	TypeCross    ProductType = "cross"
	TypeClamp    ProductType = "clamp"
	TypeRevision ProductType = "revision"
	TypeSiphon   ProductType = "siphon"
	TypeBranch   ProductType = "branch"
)

type ThreadType string

const (
	ThreadInternal ThreadType = "internal"
	ThreadExternal ThreadType = "external"
)

type Category string

const (
	CategorySewer    Category = "sewer"
	CategoryPrestige Category = "prestige"
	CategoryOutdoor  Category = "outdoor"
	CategoryPPR      Category = "ppr"
)

// Порядок маркеров важен: "хомут для труб" — это хомут, не труба.
var productTypeMarkers = []struct {
	marker string
	ptype  ProductType
}{
	{"отвод", TypeElbow},
	{"колено", TypeElbow},
	{"угольник", TypeElbow},
	{"угол", TypeElbow},
	{"тройник", TypeTee},
	{"крестовина", TypeCross},
	{"муфта", TypeCoupling},
	{"заглушка", TypeCap},
	{"переходник", TypeReducer},
	{"переход", TypeReducer},
	{"ревиз", TypeRevision},
	{"хомут", TypeClamp},
	{"сифон", TypeSiphon},
	{"патрубок", TypeBranch},
	{"труб", TypePipe},
}

var (
	angleDeg   = regexp.MustCompile(`\b(45|67|87|90)\s*(?:°|гр)`)
	angleSlash = regexp.MustCompile(`/\s*(45|67|87|90)\b`)
	pipeSizeRe = regexp.MustCompile(`(\d+)\s*[-xхXХ*×]\s*(\d+)`)
	// углы с градусом вырезаем, чтобы не принять 45° за размер
	angleCut   = regexp.MustCompile(`\b(?:45|67|87|90)\s*°`)
	fittingRe  = regexp.MustCompile(`\b(\d{2,3})\s*[-/xхXХ*×]\s*(\d{2,3})(?:\s*[-/xхXХ*×]\s*(\d{2,3}))?\b`)
	numRe      = regexp.MustCompile(`\b(\d{2,3})\b`)
	threadSzRe = regexp.MustCompile(`(\d+)\s*[xхXХ*×]\s*(\d(?:/\d)?)\s*"`)
	clampRe    = regexp.MustCompile(`(?:^|[^\p{L}\p{N}])хомут\p{L}*\s+(?:в\s+комплекте\s+)?(?:для\s+)?(?:труб\p{L}*\s+)?[∅dд]?\s*(\d+)\b`)
	clampRange = regexp.MustCompile(`\((\d+)\s*-\s*(\d+)\)`)
)

// Facets — всё, что удалось извлечь из одного текста.
type Facets struct {
	Type       ProductType
	Angle      int // 0 = не определён; 90 приводится к 87 (каталог размечен по 87°)
	Thread     ThreadType
	Category   Category
	PipeSize   *model.PipeSize
	Fitting    []int  // размеры фитинга, равные схлопнуты: (110,110)→(110)
	ThreadSize string // "32×1"" — комбинированный размер с дюймовой резьбой
	ClampMM    int    // искомый диаметр под хомут, 0 = не хомут
}

// ExtractFacets — все экстракторы разом над исходным текстом.
func ExtractFacets(text string) Facets {
	low := strings.ToLower(text)
	return Facets{
		Type:       ExtractProductType(low),
		Angle:      ExtractAngle(low),
		Thread:     ExtractThreadType(low),
		Category:   DetectClientCategory(low),
		PipeSize:   ExtractPipeSize(low),
		Fitting:    ExtractFittingSize(low),
		ThreadSize: extractThreadSize(low),
		ClampMM:    ExtractClampMM(low),
	}
}

func ExtractProductType(text string) ProductType {
	low := strings.ToLower(text)
	for _, m := range productTypeMarkers {
		if strings.Contains(low, m.marker) {
			return m.ptype
		}
	}
	return ""
}

// ExtractAngle — угол отвода/тройника. Клиенты пишут 90°, каталог размечен
// по 87° — приводим.
func ExtractAngle(text string) int {
	low := strings.ToLower(text)
	m := angleDeg.FindStringSubmatch(low)
	if m == nil {
		m = angleSlash.FindStringSubmatch(low)
	}
	if m == nil {
		return 0
	}
	a, _ := strconv.Atoi(m[1])
	if a == 90 {
		a = 87
	}
	return a
}

func ExtractThreadType(text string) ThreadType {
	low := strings.ToLower(text)
	for _, x := range []string{"в/р", "вн.рез", "вн. рез", "вн рез", "внутр", "(вр", " вр ", "внутренняя резьба"} {
		if strings.Contains(low, x) {
			return ThreadInternal
		}
	}
	for _, x := range []string{"н/р", "нар.рез", "нар. рез", "нар рез", "наруж", "(нр", " нр ", "наружная резьба"} {
		if strings.Contains(low, x) {
			return ThreadExternal
		}
	}
	return ""
}

// DetectClientCategory — категория из текста клиента.
func DetectClientCategory(text string) Category {
	low := strings.ToLower(text)
	isSewer := strings.Contains(low, "кан") || strings.Contains(low, "сантех")
	isGray := strings.Contains(low, "сер")
	isWhite := strings.Contains(low, "бел")

	switch {
	case containsAny(low, "малошум", "престиж", "prestige", "бесшум"):
		return CategoryPrestige
	case isSewer && isWhite:
		return CategoryPrestige
	case containsAny(low, "нар.кан", "нар кан", "наружн", "рыж", "оранж", "рифлен"):
		return CategoryOutdoor
	case isGray || isSewer:
		return CategorySewer
	case containsAny(low, "ппр", "ppr", "полипроп"):
		return CategoryPPR
	case isWhite:
		return CategoryPPR
	}
	return ""
}

// EntryCategory — категория записи каталога: префикс артикула надёжнее текста.
func EntryCategory(e *model.CatalogEntry) Category {
	cat := strings.ToLower(e.Category)
	name := strings.ToLower(e.Name)
	switch {
	case strings.HasPrefix(e.Sku, "202"):
		return CategorySewer
	case strings.HasPrefix(e.Sku, "303") || strings.HasPrefix(e.Sku, "604"):
		return CategoryOutdoor
	case strings.Contains(cat, "малошум") || strings.Contains(name, "prestige") || strings.Contains(name, "малошум"):
		return CategoryPrestige
	case strings.Contains(cat, "наружн") || strings.Contains(name, "нар.кан") || strings.Contains(name, "рифлен"):
		return CategoryOutdoor
	case strings.Contains(cat, "ппр") || strings.Contains(cat, "полипроп") || strings.Contains(name, "ппр"):
		return CategoryPPR
	case strings.Contains(cat, "канализац") || strings.Contains(name, "серый"):
		return CategorySewer
	}
	return ""
}

// ExtractPipeSize — пара диаметр×длина. Жёсткий фильтр, не скоринговый
// сигнал: несовпадение дисквалифицирует кандидата.
func ExtractPipeSize(text string) *model.PipeSize {
	m := pipeSizeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	d, _ := strconv.Atoi(m[1])
	l, _ := strconv.Atoi(m[2])
	if d >= 16 && d <= 400 && l >= 100 && l <= 6000 {
		return &model.PipeSize{Diameter: d, Length: l}
	}
	return nil
}

// ExtractFittingSize — 1–3 размера фитинга (переход 50×32, тройник 110-50).
// Углы с градусами вырезаются заранее, равные размеры схлопываются.
func ExtractFittingSize(text string) []int {
	clean := angleCut.ReplaceAllString(text, " ")
	if m := fittingRe.FindStringSubmatch(clean); m != nil {
		sizes := make([]int, 0, 3)
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			n, _ := strconv.Atoi(g)
			sizes = append(sizes, n)
		}
		ok := true
		for _, n := range sizes {
			if n < 25 || n > 200 {
				ok = false
				break
			}
		}
		if ok {
			return normalizeEqualSizes(sizes)
		}
	}

	// одиночный размер: Муфта 32, Заглушка 110
	low := strings.ToLower(clean)
	if t := ExtractProductType(low); t == "" || t == TypePipe || t == TypeClamp {
		return nil
	}
	for _, m := range numRe.FindAllStringSubmatch(low, -1) {
		n, _ := strconv.Atoi(m[1])
		if n >= 25 && n <= 200 {
			return []int{n}
		}
	}
	return nil
}

func extractThreadSize(text string) string {
	m := threadSzRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + "×" + m[2] + `"`
}

// ExtractClampMM — диаметр трубы из запроса на хомут.
func ExtractClampMM(text string) int {
	low := strings.ToLower(text)
	if !strings.Contains(low, "хомут") {
		return 0
	}
	m := clampRe.FindStringSubmatch(low)
	if m == nil {
		return 0
	}
	mm, _ := strconv.Atoi(m[1])
	if mm >= 15 && mm <= 200 {
		return mm
	}
	return 0
}

// ClampFitsMM — попадает ли диаметр в диапазон хомута "(107-112)" из каталога.
func ClampFitsMM(entryName string, mm int) bool {
	m := clampRange.FindStringSubmatch(entryName)
	if m == nil {
		return false
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	return lo <= mm && mm <= hi
}

func normalizeEqualSizes(sizes []int) []int {
	if len(sizes) < 2 {
		return sizes
	}
	allEqual := true
	for _, n := range sizes[1:] {
		if n != sizes[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return sizes[:1]
	}
	return sizes
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if strings.Contains(s, x) {
			return true
		}
	}
	return false
}
