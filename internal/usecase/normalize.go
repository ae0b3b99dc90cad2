package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// Таблица приходит то с английскими, то с русскими заголовками —
// на каждое логическое поле держим упорядоченный список алиасов,
// выигрывает первый непустой.
var (
	fullNameAliases      = []string{"full_name", "полное имя", "Name"}
	phoneAliases         = []string{"phone_number", "нр. тел:", "Phone"}
	emailAliases         = []string{"email", "Email"}
	carParamsAliases     = []string{"Параметры авто"}
	financingAliases     = []string{"способ оформления"}
	contactMethodAliases = []string{"способ связи"}
	budgetAliases        = []string{"бюджет в €"}
	cityAliases          = []string{"город"}
)

func pickField(row domain.Row, aliases []string) string {
	for _, key := range aliases {
		if v := row[key]; v != "" {
			return v
		}
	}
	return ""
}

// ExtractLeadFields собирает из сырой строки таблицы структурированные поля
// лида вместе с кодами справочников Bitrix24. Чистая функция, ошибок не
// бывает: отсутствующие колонки превращаются в пустые строки.
func ExtractLeadFields(row domain.Row) domain.LeadFields {
	fullName := strings.TrimSpace(pickField(row, fullNameAliases))
	firstName := fullName
	lastName := ""
	if strings.ContainsAny(fullName, " \t") {
		parts := strings.Fields(fullName)
		firstName = parts[0]
		lastName = strings.Join(parts[1:], " ")
	}

	contactMethod := pickField(row, contactMethodAliases)
	comment := ""
	if contactMethod != "" {
		comment = "Способ связи: " + contactMethod
	}

	f := domain.LeadFields{
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         NormalizePhone(pickField(row, phoneAliases)),
		Email:         strings.TrimSpace(pickField(row, emailAliases)),
		Comment:       comment,
		CarParams:     pickField(row, carParamsAliases),
		Financing:     pickField(row, financingAliases),
		BudgetRaw:     pickField(row, budgetAliases),
		City:          pickField(row, cityAliases),
		ContactMethod: contactMethod,
	}
	f.Budget = ParseBudget(f.BudgetRaw)
	f.FinancingCode = MapFinancing(f.Financing)
	f.CarParamCodes = MapCarParams(f.CarParams)
	return f
}

// NormalizePhone отрезает префиксный мусор до первой цифры ("tel: ", "нр. "
// и т.п.), сохраняя "+" перед ней. Сам номер не валидируется и не
// переформатируется.
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return s
	}
	if start > 0 && s[start-1] == '+' {
		start--
	}
	return s[start:]
}

var budgetRe = regexp.MustCompile(`[0-9][0-9 _.,]*`)

// ParseBudget достает из свободного текста первое число.
// "5_000€_-_10_000€" -> 5000, "4000,50 евро" -> 4000.5, "пять тысяч" -> 0.
func ParseBudget(raw string) float64 {
	if raw == "" {
		return 0
	}
	num := budgetRe.FindString(raw)
	if num == "" {
		return 0
	}
	num = strings.NewReplacer(" ", "", "_", "", ",", ".").Replace(num)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return v
}

type keywordRule struct {
	keywords []string
	code     int
}

// Способ оформления: первая совпавшая группа выигрывает, порядок фиксирован.
// 2662 — Cash, 2664 — Credit, 2666 — Schimb.
var financingRules = []keywordRule{
	{[]string{"cash", "налич", "кэш"}, 2662},
	{[]string{"credit", "кредит", "card"}, 2664},
	{[]string{"schimb", "обмен"}, 2666},
}

// MapFinancing возвращает код справочника «способ оформления» либо 0,
// если текст не распознан.
func MapFinancing(financing string) int {
	if financing == "" {
		return 0
	}
	s := strings.ToLower(financing)
	for _, rule := range financingRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.code
			}
		}
	}
	return 0
}

// Параметры авто: собираются все совпавшие группы в порядке таблицы.
var carParamRules = []keywordRule{
	{[]string{"не важно"}, 2724},
	{[]string{"цена", "евро"}, 2722},
	{[]string{"автомат"}, 2698},
	{[]string{"механик"}, 2700},
	{[]string{"пробег", "km", "км"}, 2702},
	{[]string{"7 лет", "7лет"}, 2704},
	{[]string{"15 лет", "15лет"}, 2706},
	{[]string{"бензин"}, 2708},
	{[]string{"дизел"}, 2710},
	{[]string{"передний"}, 2712},
	{[]string{"полный"}, 2714},
	{[]string{"без дтп", "серьезных дтп"}, 2716},
	{[]string{"не скручен"}, 2718},
	{[]string{"один владель"}, 2720},
}

// MapCarParams возвращает коды справочника «параметры авто» для всех
// совпавших групп, без дубликатов, в порядке таблицы правил.
func MapCarParams(carParams string) []int {
	codes := []int{}
	if carParams == "" {
		return codes
	}
	s := strings.ToLower(carParams)
	seen := map[int]struct{}{}
	for _, rule := range carParamRules {
		for _, kw := range rule.keywords {
			if !strings.Contains(s, kw) {
				continue
			}
			if _, ok := seen[rule.code]; !ok {
				seen[rule.code] = struct{}{}
				codes = append(codes, rule.code)
			}
			break
		}
	}
	return codes
}
