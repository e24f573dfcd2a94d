package providers

import (
	"github.com/platebook/platebook/internal/providers/email"
	"github.com/platebook/platebook/internal/providers/ocr"
	"github.com/platebook/platebook/internal/providers/pdf"
	"github.com/platebook/platebook/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	ocr.Module,
	pdf.Module,
	storage.Module,
)
