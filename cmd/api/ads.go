package main

import (
	"net/http"

	"github.com/mcclellann/jama/pkg/models"
)

const maxMediaBytes = 50 << 20

func (s *Server) liveAdsHandler(w http.ResponseWriter, r *http.Request) {
	live, err := s.ads.Live(r.Context(), userFrom(r).Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, live)
}

func (s *Server) adClickHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ad, err := s.ads.RecordClick(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"target_url": ad.TargetURL})
}

func (s *Server) listAdsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ads.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) createAdHandler(w http.ResponseWriter, r *http.Request) {
	var in models.AdInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	ad, err := s.ads.Create(r.Context(), userFrom(r).ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ad)
}

func (s *Server) updateAdHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.AdInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	ad, err := s.ads.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

func (s *Server) deleteAdHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.ads.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadAdMediaHandler takes the raw file as the request body; its
// Content-Type decides whether it becomes the image or the video.
func (s *Server) uploadAdMediaHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxMediaBytes)
	ad, err := s.ads.UploadMedia(r.Context(), id, r.Header.Get("Content-Type"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}
