package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/lecture"
)

type lectureAPI struct {
	svc lecture.Service
}

func registerLectureAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc lecture.Service) {
	api := &lectureAPI{svc: svc}

	lg := g.Group("/lectures", jwt)
	lg.POST("", api.create)
	lg.GET("", api.queryOwn)
	lg.GET("/:id", api.get)

	rg := g.Group("/recordings", jwt)
	rg.POST("/start/:id", api.startRecording)
	rg.POST("/stop/:id", api.stopRecording)
}

func (api *lectureAPI) create(ctx echo.Context) error {
	var nl lecture.NewLecture
	if err := ctx.Bind(&nl); err != nil {
		return err
	}
	nl.TeacherID = contextTeacherID(ctx)

	lec, err := api.svc.Create(nl)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lec)
}

func (api *lectureAPI) queryOwn(ctx echo.Context) error {
	lecs, err := api.svc.QueryAll()
	if err != nil {
		return err
	}
	teacherID := contextTeacherID(ctx)
	own := make([]lecture.Lecture, 0, len(lecs))
	for _, lec := range lecs {
		if lec.TeacherID == teacherID {
			own = append(own, lec)
		}
	}
	return ctx.JSON(http.StatusOK, own)
}

func (api *lectureAPI) get(ctx echo.Context) error {
	lec, err := api.svc.GetForTeacher(ctx.Param("id"), contextTeacherID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lec)
}

func (api *lectureAPI) startRecording(ctx echo.Context) error {
	lec, err := api.svc.StartRecording(ctx.Param("id"), contextTeacherID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Recording started",
		"lecture": lec,
	})
}

// stopRecording finalizes the recording; the analysis pipeline is launched in
// the background and the response returns immediately.
func (api *lectureAPI) stopRecording(ctx echo.Context) error {
	var stop lecture.StopRecording
	if err := ctx.Bind(&stop); err != nil {
		return err
	}

	lec, err := api.svc.StopRecording(ctx.Param("id"), contextTeacherID(ctx), stop)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Recording stopped. Analysis started.",
		"lecture": lec,
	})
}
