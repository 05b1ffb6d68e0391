//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"media-processor/cmd"
	"media-processor/domain/isolation"

	"github.com/cucumber/godog"
)

type planContext struct {
	input  cmd.PlanInput
	output bytes.Buffer
	err    error
}

var SharedPlanContext = &planContext{}

func InitializePlanScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedPlanContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		*testCtx = planContext{}
		return c, nil
	})

	ctx.Step(`^I plan (\d+(?:\.\d+)?) seconds of audio in (\d+) chunks with (\d+(?:\.\d+)?) seconds? of overlap$`, testCtx.iPlanSecondsOfAudio)
	ctx.Step(`^the plan should succeed$`, testCtx.thePlanShouldSucceed)
	ctx.Step(`^the plan should fail$`, testCtx.thePlanShouldFail)
	ctx.Step(`^the plan should show "([^"]*)"$`, testCtx.thePlanShouldShow)
	ctx.Step(`^the plan should fail with an invalid input error$`, testCtx.thePlanShouldFailWithAnInvalidInputError)
	ctx.Step(`^the plan should print nothing$`, testCtx.thePlanShouldPrintNothing)
}

func (p *planContext) iPlanSecondsOfAudio(seconds float64, chunks int, overlap float64) error {
	p.input = cmd.PlanInput{Duration: seconds, Chunks: chunks, Overlap: overlap}
	p.err = cmd.RunPlanWithDependencies(context.Background(), nil, p.input, &p.output)
	return nil
}

func (p *planContext) thePlanShouldSucceed() error {
	if p.err != nil {
		return fmt.Errorf("expected plan to succeed, got: %w", p.err)
	}
	return nil
}

func (p *planContext) thePlanShouldFail() error {
	if p.err == nil {
		return fmt.Errorf("expected plan to fail")
	}
	return nil
}

func (p *planContext) thePlanShouldShow(text string) error {
	if !strings.Contains(p.output.String(), text) {
		return fmt.Errorf("plan output does not contain %q:\n%s", text, p.output.String())
	}
	return nil
}

func (p *planContext) thePlanShouldFailWithAnInvalidInputError() error {
	if !errors.Is(p.err, isolation.ErrInvalidInput) {
		return fmt.Errorf("expected invalid input error, got: %v", p.err)
	}
	return nil
}

func (p *planContext) thePlanShouldPrintNothing() error {
	if p.output.Len() != 0 {
		return fmt.Errorf("expected no output, got:\n%s", p.output.String())
	}
	return nil
}
