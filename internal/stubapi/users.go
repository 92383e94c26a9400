package stubapi

import (
	"encoding/json"
	"net/http"
)

type loginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFieldErrors(w, map[string][]string{"detail": {"invalid JSON body"}})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || acc.password != req.Password {
		respondDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	respondJSON(w, http.StatusOK, s.issueTokens(acc))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFieldErrors(w, map[string][]string{"detail": {"invalid JSON body"}})
		return
	}

	fields := map[string][]string{}
	if req.Email == "" {
		fields["email"] = append(fields["email"], "This field may not be blank.")
	}
	if req.Username == "" {
		fields["username"] = append(fields["username"], "This field may not be blank.")
	}
	if req.Password == "" {
		fields["password"] = append(fields["password"], "This field may not be blank.")
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		fields["email"] = append(fields["email"], "user with this email already exists.")
	}
	if len(fields) > 0 {
		s.mu.Unlock()
		respondFieldErrors(w, fields)
		return
	}
	user := s.createAccountLocked(req.Name, req.Email, req.Username, req.Password)
	acc := s.accounts[req.Email]
	s.mu.Unlock()

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"tokens": s.issueTokens(acc),
		"user":   user,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.authenticate(r)
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	respondJSON(w, http.StatusOK, acc.user)
}
