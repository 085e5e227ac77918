package media

import (
	"fmt"
	"strings"

	"sodai-platform/internal/domain/model"
)

// audienceProfile is the derived segmentation fed into the copy prompt.
type audienceProfile struct {
	Demographic   string
	Psychographic string
	PainPoints    []string
	Motivations   []string
	PreferredTone string
}

var psychographics = map[string]string{
	"18-25": "Sosyal medya odaklı, trend takipçisi, spontane karar verici",
	"26-35": "Kariyer odaklı, marka bilinçli, araştırmacı",
	"36-45": "Aile odaklı, güvenilirlik arayan, deneyim değeri veren",
	"46-55": "Kalite odaklı, geleneksel değerlere sahip, uzun vadeli düşünen",
	"55+":   "Güven odaklı, deneyimli, istikrar arayan",
}

var painPoints = map[string][]string{
	"Ekonomik": {"Bütçe kısıtları", "Değer arayışı", "Fiyat hassasiyeti"},
	"Orta":     {"Kalite-fiyat dengesi", "Güvenilirlik", "Pratiklik"},
	"Premium":  {"Kalite standartları", "Hizmet beklentisi", "Prestij"},
	"Lüks":     {"Exclusivity", "Mükemmellik", "Statü"},
}

var motivations = map[string][]string{
	"Kadın": {"Kendini ifade etme", "Güzellik", "Sosyal onay", "Aile refahı"},
	"Erkek": {"Başarı", "Prestij", "Güç", "Pratiklik"},
	"Karma": {"Başarı", "Mutluluk", "Güvenlik", "Sosyal bağlantı"},
}

func analyzeAudience(req model.CopyRequest) audienceProfile {
	p := audienceProfile{
		Demographic:   fmt.Sprintf("%s yaş %s", req.AgeGroup, req.Gender),
		Psychographic: "Genel hedef kitle",
		PainPoints:    []string{"Genel endişeler"},
		Motivations:   []string{"Genel motivasyonlar"},
	}
	if v, ok := psychographics[req.AgeGroup]; ok {
		p.Psychographic = v
	}
	if v, ok := painPoints[req.IncomeLevel]; ok {
		p.PainPoints = v
	}
	if v, ok := motivations[req.Gender]; ok {
		p.Motivations = v
	}
	switch req.IncomeLevel {
	case "Lüks":
		p.PreferredTone = "Sofistike ve prestijli"
	case "Premium":
		p.PreferredTone = "Profesyonel ve güvenilir"
	case "Orta":
		p.PreferredTone = "Samimi ve güvenilir"
	default:
		p.PreferredTone = "Samimi ve erişilebilir"
	}
	return p
}

// buildCopyPrompt turns a copy brief into the full Turkish instruction sent
// to the language model.
func buildCopyPrompt(req model.CopyRequest) string {
	a := analyzeAudience(req)
	return fmt.Sprintf(`Sen profesyonel bir Türkçe pazarlama içeriği uzmanısın. Aşağıdaki bilgilere göre hedef kitleye uygun, etkileyici bir %s içeriği oluştur:

İŞ ALANI: %s
PLATFORM: %s
STIL: %s

HEDEF KİTLE ANALİZİ:
- Demografik: %s
- Psikografik: %s
- Ana Endişeler: %s
- Motivasyonlar: %s
- Tercih Edilen Ton: %s

GEREKSINIMLER:
1. Türkçe dilinde yazılmalı
2. Hedef kitleye uygun ton ve dil kullanılmalı
3. Platform özelliklerine uygun format (karakter limiti, hashtag kullanımı vb.)
4. Etkileyici başlık/açılış
5. Net call-to-action
6. Uygun emoji kullanımı
7. İlgili hashtag önerileri

YASAKLANAN:
- Abartılı vaatler
- Yanıltıcı bilgiler
- Spamsi içerik
- Kopyala-yapıştır hissi veren jenerik metinler

Lütfen orijinal, yaratıcı ve hedef kitleyi harekete geçirecek bir içerik üret.`,
		req.Platform, req.Niche, req.Platform, req.Style,
		a.Demographic, a.Psychographic,
		strings.Join(a.PainPoints, ", "), strings.Join(a.Motivations, ", "),
		a.PreferredTone)
}
