package media

import (
	"context"
	"fmt"
	"strings"

	"sodai-platform/internal/domain/model"
	"sodai-platform/internal/domain/ports/adapter"
)

// Compile-time checks
var _ adapter.Copywriter = (*DemoCopywriter)(nil)
var _ adapter.VideoGenerator = (*DemoVideoGenerator)(nil)

// DemoCopywriter returns canned Turkish content without calling any
// provider. Used when the platform runs without AI keys.
type DemoCopywriter struct{}

func NewDemoCopywriter() *DemoCopywriter { return &DemoCopywriter{} }

func (d *DemoCopywriter) Name() string { return "demo" }

func (d *DemoCopywriter) GenerateCopy(_ context.Context, req model.CopyRequest) (string, adapter.CopyUsage, error) {
	premium := req.IncomeLevel == "Premium" || req.IncomeLevel == "Lüks"
	minimal := req.Style == "minimal"

	var content string
	switch strings.ToLower(req.Platform) {
	case "instagram":
		quality := "💫 Özel olarak tasarlanmış"
		if premium {
			quality = "✨ Premium kalitede"
		}
		bullets := "🚀 Enerjik ve dinamik\n💪 Güçlü performans\n🎨 Yaratıcı çözümler"
		if minimal {
			bullets = "🔹 Sade ve etkili\n🔹 Profesyonel kalite\n🔹 Zamansız tasarım"
		}
		content = fmt.Sprintf(`🎯 Hedef kitlenize özel Instagram içeriği:

%s çözümlerimizle fark yaratın!

%s

👆 Hikayemizi keşfedin
📞 Hemen iletişime geçin

#kalite #başarı #türkiye #instagram #takip`, quality, bullets)
	case "tiktok":
		secret := "harika"
		if premium {
			secret = "premium"
		}
		content = fmt.Sprintf(`🎬 TikTok Video Script:

[Açılış - 0-3 saniye]
"Bu şeytan detayını biliyor muydunuz? 🤔"

[Hook - 3-8 saniye]
"İşte size %s bir sır..."

[İçerik - 8-25 saniye]
✅ Ana faydalar
✅ Neden farklı
✅ Sonuçlar

[CTA - 25-30 saniye]
"Daha fazlası için bizi takip edin! 👆"

#keşfet #viral #ipucu #türkiye`, secret)
	default:
		opener := "İhtiyaçlarınıza mükemmel uyum sağlayan"
		if premium {
			opener = "Kaliteli yaşam tarzınızı yansıtan"
		}
		bullets := "• Yenilikçi yaklaşım\n• Enerjik performans\n• Yaratıcı sonuçlar"
		if minimal {
			bullets = "• Sade tasarım anlayışı\n• Fonksiyonel çözümler\n• Uzun ömürlü kalite"
		}
		content = fmt.Sprintf(`📝 Profesyonel pazarlama içeriği:

"%s çözümlerimizle tanışın!

%s

Hemen bizimle iletişime geçin ve farkı deneyimleyin!"`, opener, bullets)
	}

	return content, adapter.CopyUsage{
		PromptTokens:     countTokens("gpt-4o-mini", buildCopyPrompt(req)),
		CompletionTokens: countTokens("gpt-4o-mini", content),
	}, nil
}

// DemoVideoGenerator returns a placeholder clip URL without rendering.
type DemoVideoGenerator struct{}

func NewDemoVideoGenerator() *DemoVideoGenerator { return &DemoVideoGenerator{} }

func (d *DemoVideoGenerator) Name() string { return "demo" }

func (d *DemoVideoGenerator) GenerateVideo(_ context.Context, req model.VideoRequest) (model.VideoResult, error) {
	if err := req.Validate(); err != nil {
		return model.VideoResult{}, err
	}
	return model.VideoResult{VideoURL: "https://storage.googleapis.com/falserverless/demo/hailuo-sample.mp4"}, nil
}
