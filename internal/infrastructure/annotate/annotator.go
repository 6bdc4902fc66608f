package annotate

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"crop-doctor/internal/domain/entity"
	"crop-doctor/internal/domain/port"
)

// MIMEType формат закодированного результата
const MIMEType = "image/png"

// palette цвета рамок, выбираются по классу
var palette = []color.RGBA{
	{R: 255, A: 255},         // красный
	{G: 255, A: 255},         // зелёный
	{B: 255, A: 255},         // синий
	{R: 255, G: 255, A: 255}, // жёлтый
	{R: 255, B: 255, A: 255}, // пурпурный
	{G: 255, B: 255, A: 255}, // голубой
	{R: 255, G: 128, A: 255}, // оранжевый
	{R: 128, B: 255, A: 255}, // фиолетовый
}

// Options параметры отрисовки
type Options struct {
	LineWidth float64
	FontSize  float64
}

// DefaultOptions толщина рамки и размер шрифта по умолчанию
func DefaultOptions() Options {
	return Options{LineWidth: 3, FontSize: 16}
}

// Annotator рисует рамки и подписи детекций и кодирует результат в PNG.
type Annotator struct {
	font *truetype.Font
	opts Options
}

// New создаёт аннотатор со встроенным шрифтом Go Regular
func New(opts Options) (*Annotator, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	def := DefaultOptions()
	if opts.LineWidth <= 0 {
		opts.LineWidth = def.LineWidth
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	return &Annotator{font: f, opts: opts}, nil
}

// Annotate рисует детекции на копии img. detections ожидаются по убыванию
// уверенности; рисуются с конца, чтобы самая уверенная рамка оказалась сверху.
// Без детекций результат совпадает с img попиксельно.
func (a *Annotator) Annotate(img image.Image, detections []entity.Detection) (res *entity.AnnotatedImage, err error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-size image", entity.ErrAnnotation)
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: render: %v", entity.ErrAnnotation, r)
		}
	}()

	b := img.Bounds()
	canvas := newCanvas(img)

	if len(detections) > 0 {
		layer := image.NewRGBA(canvas.Bounds())
		dc := gg.NewContextForRGBA(layer)
		// face не потокобезопасен, поэтому свой на каждый вызов
		dc.SetFontFace(truetype.NewFace(a.font, &truetype.Options{Size: a.opts.FontSize}))
		for i := len(detections) - 1; i >= 0; i-- {
			a.drawDetection(dc, detections[i])
		}
		overlay(canvas, layer)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", entity.ErrAnnotation, err)
	}

	return &entity.AnnotatedImage{
		MIMEType: MIMEType,
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// newCanvas копирует img в холст той же точности с началом в (0,0).
// 16-битные и неумноженные на альфу источники получают холст своего типа,
// иначе при копировании теряются младшие биты.
func newCanvas(img image.Image) draw.Image {
	b := img.Bounds()
	r := image.Rect(0, 0, b.Dx(), b.Dy())

	var canvas draw.Image
	switch img.ColorModel() {
	case color.NRGBAModel:
		canvas = image.NewNRGBA(r)
	case color.NRGBA64Model:
		canvas = image.NewNRGBA64(r)
	case color.RGBA64Model, color.Gray16Model, color.Alpha16Model:
		canvas = image.NewRGBA64(r)
	default:
		canvas = image.NewRGBA(r)
	}

	switch canvas.(type) {
	case *image.NRGBA, *image.NRGBA64:
		// draw.Draw проходит через умноженные значения, поэтому копируем как есть
		for y := 0; y < r.Dy(); y++ {
			for x := 0; x < r.Dx(); x++ {
				canvas.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
			}
		}
	default:
		draw.Draw(canvas, r, img, b.Min, draw.Src)
	}
	return canvas
}

// overlay накладывает слой на холст (Porter-Duff over). Пиксели, которых
// отрисовка не коснулась, не трогаются.
func overlay(dst draw.Image, layer *image.RGBA) {
	const m = 0xffff
	b := layer.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s := layer.RGBAAt(x, y)
			if s.A == 0 {
				continue
			}
			sr, sg, sb, sa := s.RGBA()
			dr, dg, db, da := dst.At(x, y).RGBA()
			k := m - sa
			dst.Set(x, y, color.RGBA64{
				R: uint16(sr + dr*k/m),
				G: uint16(sg + dg*k/m),
				B: uint16(sb + db*k/m),
				A: uint16(sa + da*k/m),
			})
		}
	}
}

func (a *Annotator) drawDetection(dc *gg.Context, d entity.Detection) {
	clr := colorFor(d.ClassID)
	x1, y1 := d.Box.XMin, d.Box.YMin

	dc.SetColor(clr)
	dc.SetLineWidth(a.opts.LineWidth)
	dc.DrawRectangle(x1, y1, d.Box.Width(), d.Box.Height())
	dc.Stroke()

	text := Label(d)
	tw, th := dc.MeasureString(text)
	labelY := y1 - th - 5
	if labelY < 0 {
		labelY = 0
	}

	dc.SetColor(clr)
	dc.DrawRectangle(x1, labelY, tw+10, th+5)
	dc.Fill()

	dc.SetColor(color.White)
	dc.DrawString(text, x1+5, labelY+th+1)
}

// Label текст подписи: "<метка> (<NN>%)"
func Label(d entity.Detection) string {
	return fmt.Sprintf("%s (%.0f%%)", d.Label, d.Confidence*100)
}

func colorFor(classID int) color.RGBA {
	i := classID % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

var _ port.Annotator = (*Annotator)(nil)
