package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/darasa/core/lecture"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db   *sql.DB
	repo lecture.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  addlecture -teacher ID -title TITLE -subject SUBJECT -class CLASS -date YYYY-MM-DD -start HH:MM -end HH:MM [-email EMAIL] [-video URL] - schedule a lecture")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addLectureCmd := flag.NewFlagSet("addlecture", flag.ExitOnError)
	addLectureTeacher := addLectureCmd.String("teacher", "", "The teacher's ID.")
	addLectureEmail := addLectureCmd.String("email", "", "The teacher's email, for analysis notifications.")
	addLectureTitle := addLectureCmd.String("title", "", "The lecture title.")
	addLectureSubject := addLectureCmd.String("subject", "", "The subject taught.")
	addLectureClass := addLectureCmd.String("class", "", "The class or grade.")
	addLectureDate := addLectureCmd.String("date", "", "The scheduled date, YYYY-MM-DD.")
	addLectureStart := addLectureCmd.String("start", "", "The start time, HH:MM.")
	addLectureEnd := addLectureCmd.String("end", "", "The end time, HH:MM.")
	addLectureVideo := addLectureCmd.String("video", "", "Optional reference video URL.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addlecture":
		if err := addLectureCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addLectureTeacher == "" || *addLectureTitle == "" || *addLectureSubject == "" ||
			*addLectureClass == "" || *addLectureDate == "" || *addLectureStart == "" || *addLectureEnd == "" {
			addLectureCmd.Usage()
			return errHelp
		}
		return cli.addLecture(
			*addLectureTeacher, *addLectureEmail, *addLectureTitle, *addLectureSubject, *addLectureClass,
			*addLectureDate, *addLectureStart, *addLectureEnd, *addLectureVideo,
		)
	default:
		cli.printUsage()
		return errHelp
	}
}
