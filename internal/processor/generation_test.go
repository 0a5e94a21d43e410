package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
)

func TestGeneration_HappyPathFromCV(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueGeneration, map[string]any{
		"cvId": "cv1", "outputFormat": domain.FormatPDF, "templateId": domain.TemplateModern,
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	content := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}}
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1", Content: content}, nil)
	h.raster.On("Render", mock.Anything, content, domain.FormatPDF, domain.TemplateModern, domain.Customization{}).
		Return([]byte("%PDF-1.4"), domain.GenerationStats{PageCount: 1, WordCount: 10}, nil)
	h.objects.On("Put", mock.Anything, mock.Anything, mock.Anything, "application/pdf").Return(nil)
	h.gens.On("Upsert", mock.Anything, mock.MatchedBy(func(g domain.Generation) bool {
		return g.OutputFile.MimeType == "application/pdf" && g.OutputFile.FileName == "Jane-Doe.pdf"
	})).Return(nil)
	h.users.On("IncrementUsage", mock.Anything, "u1", "generations", 1).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Generation(context.Background(), h.engine, j)
	require.NoError(t, err)
}

func TestGeneration_ResolvesFromInlineInputData(t *testing.T) {
	p, h := newHarness()
	content := domain.Content{Personal: domain.Personal{Name: "Inline Person"}}
	j := baseJob(domain.QueueGeneration, map[string]any{
		"inputData": content, "outputFormat": domain.FormatDOCX, "templateId": domain.TemplateMinimal,
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.raster.On("Render", mock.Anything, content, domain.FormatDOCX, domain.TemplateMinimal, domain.Customization{}).
		Return([]byte("docxbytes"), domain.GenerationStats{}, nil)
	h.objects.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h.gens.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	h.users.On("IncrementUsage", mock.Anything, "u1", "generations", 1).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Generation(context.Background(), h.engine, j)
	require.NoError(t, err)
	h.cvs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestGeneration_RasterizerFailureIsTerminal(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueGeneration, map[string]any{"cvId": "cv1", "outputFormat": domain.FormatPDF})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.raster.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.GenerationStats{}, assertNotFound)
	h.broker.On("Nack", mock.Anything, "job1", false, mock.Anything).Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Generation(context.Background(), h.engine, j)
	require.NoError(t, err)
}

func TestOutputFileName(t *testing.T) {
	name, mime := outputFileName(domain.FormatPDF, "Jane Doe")
	require.Equal(t, "Jane-Doe.pdf", name)
	require.Equal(t, "application/pdf", mime)

	name, mime = outputFileName(domain.FormatDOCX, "")
	require.Equal(t, "cv.docx", name)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", mime)
}

func TestSanitizeFileBase(t *testing.T) {
	require.Equal(t, "Jane-Doe", sanitizeFileBase("Jane Doe"))
	require.Equal(t, "cv", sanitizeFileBase("@@@"))
	require.Equal(t, "cv", sanitizeFileBase(""))
}
