package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/enlistment-api/internal/dto"
	"github.com/noah-isme/enlistment-api/internal/models"
	"github.com/noah-isme/enlistment-api/internal/repository"
	"github.com/noah-isme/enlistment-api/internal/service"
)

func main() {
	verbose := flag.Bool("v", false, "log service decisions to stderr")
	flag.Parse()

	logr := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		logr = l
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), os.Stdout, logr); err != nil {
		log.Fatalf("demo failed: %v", err)
	}
}

type demo struct {
	out         io.Writer
	catalog     *service.CatalogService
	enlistments *service.EnlistmentService
	assessments *service.AssessmentService
	err         error
}

func run(ctx context.Context, out io.Writer, logr *zap.Logger) error {
	store := repository.NewCatalogStore()
	d := &demo{
		out:         out,
		catalog:     service.NewCatalogService(store, nil, nil, nil, logr),
		enlistments: service.NewEnlistmentService(store, nil, nil, nil, logr),
		assessments: service.NewAssessmentService(store, nil, nil, service.DefaultFeeSchedule(), 0, logr),
	}

	d.setup(ctx)
	if d.err != nil {
		return fmt.Errorf("catalog setup: %w", d.err)
	}

	fmt.Fprintln(out, "=== Student Enlistment Demo ===")

	fmt.Fprintln(out, "\n1. Enlisting student 12345")
	for _, id := range []string{"MATH101A", "PHYS101A", "CHEM101LA"} {
		if _, err := d.enlistments.Enlist(ctx, 12345, dto.EnlistRequest{SectionID: id}); err != nil {
			return err
		}
		fmt.Fprintf(out, "   + %s\n", id)
	}

	fmt.Fprintln(out, "\n2. Load of student 12345")
	student, err := d.catalog.GetStudent(ctx, 12345)
	if err != nil {
		return err
	}
	for _, id := range student.EnrolledSections {
		section, err := d.catalog.GetSection(ctx, id)
		if err != nil {
			return err
		}
		kind := ""
		if section.Subject.Laboratory {
			kind = ", laboratory"
		}
		fmt.Fprintf(out, "   - %s: %s (%d units%s)\n", section.ID, section.SubjectID, section.Subject.Units, kind)
		fmt.Fprintf(out, "     %s, room %s, %s\n", section.Schedule, section.Room, section.Instructor)
	}

	if err := d.printAssessment(ctx, "\n3. Assessment"); err != nil {
		return err
	}

	fmt.Fprintln(out, "\n4. Rejected enlistments")
	d.expectRejection(ctx, 12345, "MATH101A")
	if _, err := d.catalog.CreateSection(ctx, dto.CreateSectionRequest{
		ID: "PHYS101B", SubjectID: "PHYS101", Days: "MTH", Period: "H0830_1000", Room: "B101", Instructor: "Dr. Jones",
	}); err != nil {
		return err
	}
	d.expectRejection(ctx, 12345, "PHYS101B")
	d.expectRejection(ctx, 99999, "MATH201A")

	fmt.Fprintln(out, "\n5. Cancelling CHEM101LA")
	if _, err := d.enlistments.Cancel(ctx, 12345, "CHEM101LA"); err != nil {
		return err
	}
	if err := d.printAssessment(ctx, "   Updated assessment"); err != nil {
		return err
	}

	fmt.Fprintln(out, "\n=== Demo complete ===")
	return nil
}

func (d *demo) setup(ctx context.Context) {
	d.do(d.catalog.CreateSubject(ctx, dto.CreateSubjectRequest{ID: "MATH101", Units: 3}))
	d.do(d.catalog.CreateSubject(ctx, dto.CreateSubjectRequest{ID: "MATH201", Units: 3, Prerequisites: []string{"MATH101"}}))
	d.do(d.catalog.CreateSubject(ctx, dto.CreateSubjectRequest{ID: "CHEM101L", Units: 1, Laboratory: true}))
	d.do(d.catalog.CreateSubject(ctx, dto.CreateSubjectRequest{ID: "PHYS101", Units: 4}))

	d.do(d.catalog.CreateRoom(ctx, dto.CreateRoomRequest{Name: "A101", Capacity: 30}))
	d.do(d.catalog.CreateRoom(ctx, dto.CreateRoomRequest{Name: "B101", Capacity: 25}))
	d.do(d.catalog.CreateRoom(ctx, dto.CreateRoomRequest{Name: "LAB1", Capacity: 15}))

	for _, name := range []string{"Dr. Smith", "Dr. Jones", "Dr. Lab"} {
		d.do(d.catalog.CreateInstructor(ctx, dto.CreateInstructorRequest{Name: name}))
	}

	for _, req := range []dto.CreateSectionRequest{
		{ID: "MATH101A", SubjectID: "MATH101", Days: "MTH", Period: "H0830_1000", Room: "A101", Instructor: "Dr. Smith"},
		{ID: "PHYS101A", SubjectID: "PHYS101", Days: "TF", Period: "H1000_1130", Room: "B101", Instructor: "Dr. Jones"},
		{ID: "CHEM101LA", SubjectID: "CHEM101L", Days: "WS", Period: "H1130_1300", Room: "LAB1", Instructor: "Dr. Lab"},
		{ID: "MATH201A", SubjectID: "MATH201", Days: "TF", Period: "H1300_1430", Room: "B101", Instructor: "Dr. Jones"},
	} {
		d.do(d.catalog.CreateSection(ctx, req))
	}

	for _, number := range []int{12345, 67890, 99999} {
		n := number
		d.do(d.catalog.RegisterStudent(ctx, dto.RegisterStudentRequest{StudentNumber: &n}))
	}
}

// do keeps the first setup failure.
func (d *demo) do(_ any, err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

func (d *demo) expectRejection(ctx context.Context, number int, sectionID string) {
	_, err := d.enlistments.Enlist(ctx, number, dto.EnlistRequest{SectionID: sectionID})
	if err == nil {
		fmt.Fprintf(d.out, "   ! %d unexpectedly enlisted in %s\n", number, sectionID)
		return
	}
	fmt.Fprintf(d.out, "   x %s\n", err)
}

func (d *demo) printAssessment(ctx context.Context, title string) error {
	assessment, err := d.assessments.RequestAssessment(ctx, 12345)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, title)
	printLines(d.out, assessment)
	return nil
}

func printLines(out io.Writer, a *models.Assessment) {
	for _, line := range a.Lines {
		fmt.Fprintf(out, "   %-20s %12s\n", line.Label, line.Amount.StringFixed(2))
	}
	fmt.Fprintf(out, "   %-20s %12s\n", "VAT", a.VAT.StringFixed(2))
	fmt.Fprintf(out, "   %-20s %12s\n", "Total due", a.Total.StringFixed(2))
}
