package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSku(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"202-110-2000", "2021102000"},
		{" 202.110.2000 ", "2021102000"},
		{"202_110/2000", "2021102000"},
		{"000123", "123"},
		{"000", "0"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeSku(c.in), "input %q", c.in)
	}
}

func TestNormalizeSkuLookalikes(t *testing.T) {
	// латинские двойники и кириллица дают один и тот же токен
	assert.Equal(t, NormalizeSku("АВ-12"), NormalizeSku("AB-12"))
	assert.Equal(t, NormalizeSku("КТ-50"), NormalizeSku("KT-50"))
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"размер, синоним материала, шум упаковки и цвета",
			"Труба ПП 110-2000 серая (уп. 10 шт.)",
			"труба полипропилен 110×2000",
		},
		{
			"разделители размера х и *",
			"ТРУБА ПП 110Х2000",
			"труба полипропилен 110×2000",
		},
		{
			"колено это отвод",
			"Колено 110",
			"отвод 110",
		},
		{
			"хомут по диаметру трубы приводится к дюймам",
			"Хомут 110 с дюбелем",
			`хомут в комплекте 4" с дюбелем`,
		},
		{
			"американка и внутренняя резьба",
			"Американка 32 в/р",
			"муфта разъемная 32 внутренняя резьба",
		},
		{
			"нр раскрывается, пп раскрывается",
			"Муфта ПП 32 НР",
			"муфта полипропилен 32 наружная резьба",
		},
		{
			"pe-rt и десятичная запятая",
			"труба PE-RT 16х2,2",
			"труба полиэтилен 16×2.2",
		},
		{
			"кан. и бренд",
			"Заглушка кан. 110 JK",
			"заглушка канализационн 110",
		},
		{
			"толщина стенки в скобках и цвет",
			"труба ПЭ 32 (3,2) белая",
			"труба полиэтилен 32",
		},
		{
			"дюймовый слэш не принимается за размер",
			`Хомут 3/4"`,
			`хомут 3/4"`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NormalizeName(c.in))
		})
	}
}

// Два написания одного товара обязаны давать одну строку.
func TestNormalizeNameConverges(t *testing.T) {
	a := NormalizeName("Труба ПП 110-2000 серая")
	b := NormalizeName("труба пп 110х2000")
	assert.Equal(t, a, b)
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"Труба ПП 110-2000 серая (уп. 10 шт.)",
		"Хомут 110 с дюбелем",
		"Американка 32 в/р",
		"Колено 45 гр. 110",
		"Переход эксцентрический 110х50",
		"труба PE-RT 16х2,2",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestNormalizeNameMixedScript(t *testing.T) {
	// латинские двойники внутри кириллического токена унифицируются
	assert.Equal(t, NormalizeName("Труба 110"), NormalizeName("Трyба 110")) // y — латинская
	// чисто латинские токены не трогаем
	assert.Contains(t, NormalizeName("Труба Prestige 110"), "prestige")
}

func TestExtractSkuFromText(t *testing.T) {
	assert.Equal(t, "202-110-2000", ExtractSkuFromText("202-110-2000 Труба ПП 110х2000"))
	assert.Equal(t, "", ExtractSkuFromText("Труба ПП 110х2000"))
	assert.Equal(t, "", ExtractSkuFromText(""))
}
